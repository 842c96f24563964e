package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rps_webapp/internal/config"
	"rps_webapp/internal/db"
	httpServer "rps_webapp/internal/http"
	"rps_webapp/internal/http/middleware"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/migrations"
	"rps_webapp/internal/repository"
	"rps_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

const cleanupInterval = time.Minute

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	if err := service.InitJWT(cfg.JWTSecret); err != nil {
		logger.Fatal("init jwt", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rounds, err := openRoundStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open round archive", "error", err)
	}

	if middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB) {
		defer middleware.CloseRedis()
	}

	sessions := service.NewSessionService(service.SessionConfig{
		Variant:  cfg.Variant,
		Elements: cfg.Elements,
		Delay:    cfg.CommitDelay,
		TTL:      cfg.SessionTTL,
	}, service.NewRoundRecorder(rounds, cfg.Variant))
	sessions.StartCleanup(ctx, cleanupInterval)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Config:   cfg,
		Sessions: sessions,
		Rounds:   rounds,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started",
			"port", cfg.AppPort,
			"variant", cfg.Variant,
			"elements", cfg.Elements,
			"commit_delay", cfg.CommitDelay.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	sessions.Shutdown()
	if rounds != nil {
		if err := rounds.Close(); err != nil {
			logger.Warn("close round archive", "error", err)
		}
	}

	logger.Info("server exited")
}

// openRoundStore returns a nil store when no archive is configured, so the
// interface value itself stays nil.
func openRoundStore(ctx context.Context, cfg *config.Config) (repository.RoundStore, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return repository.NewRoundRepository(pool), nil

	case cfg.SQLitePath != "":
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo := repository.NewSQLiteRoundRepository(sqlDB)
		if err := repo.Migrate(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return repo, nil

	default:
		logger.Info("round archive disabled", "hint", "set DATABASE_URL or SQLITE_PATH")
		return nil, nil
	}
}
