package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rps_webapp/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// Connect opens a Postgres pool and pings it
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "driver", "postgres")
	return pool, nil
}

// OpenSQLite opens a SQLite file in WAL mode
func OpenSQLite(path string) (*sql.DB, error) {
	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// one writer at a time; WAL lets readers proceed
	sdb.SetMaxOpenConns(1)
	if _, err := sdb.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := sdb.Exec("PRAGMA busy_timeout=5000"); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	logger.Info("database connected", "driver", "sqlite", "path", path)
	return sdb, nil
}
