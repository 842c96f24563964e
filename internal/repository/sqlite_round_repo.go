package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rps_webapp/internal/domain"
)

// SQLiteRoundRepository stores rounds in a local SQLite file. created_at is
// kept as unix milliseconds so range filters compare numerically.
type SQLiteRoundRepository struct {
	db *sql.DB
}

func NewSQLiteRoundRepository(db *sql.DB) *SQLiteRoundRepository {
	return &SQLiteRoundRepository{db: db}
}

// Migrate creates the rounds table if needed
func (r *SQLiteRoundRepository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id    TEXT    NOT NULL,
			variant       TEXT    NOT NULL DEFAULT 'classic',
			mode          TEXT    NOT NULL DEFAULT 'manual',
			result        TEXT    NOT NULL,
			player_move   TEXT    NOT NULL,
			opponent_move TEXT    NOT NULL,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_created_at ON rounds (created_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate rounds: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRoundRepository) Create(ctx context.Context, rec *domain.RoundRecord) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rounds
			(session_id, variant, mode, result, player_move, opponent_move, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.Variant,
		string(rec.Mode),
		string(rec.Result),
		rec.PlayerMove,
		rec.OpponentMove,
		now.UnixMilli(),
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	return nil
}

func (r *SQLiteRoundRepository) Stats(ctx context.Context, since time.Time) (*domain.RoundStats, error) {
	stats := &domain.RoundStats{Since: since, MoveCounts: map[string]int{}}
	sinceMs := since.UnixMilli()

	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN result = 'draw' THEN 1 ELSE 0 END), 0)
		 FROM rounds
		 WHERE created_at >= ?`,
		sinceMs,
	).Scan(&stats.TotalRounds, &stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT player_move, COUNT(*)
		 FROM rounds
		 WHERE created_at >= ?
		 GROUP BY player_move`,
		sinceMs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			move  string
			count int
		)
		if err := rows.Scan(&move, &count); err != nil {
			return nil, err
		}
		stats.MoveCounts[move] = count
	}

	return stats, rows.Err()
}

func (r *SQLiteRoundRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRoundRepository) Close() error {
	return r.db.Close()
}
