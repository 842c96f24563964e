package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rps_webapp/internal/game"
	"rps_webapp/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON"`

	JWTSecret     string        `env:"JWT_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	AllowedOrigin string        `env:"ALLOWED_ORIGIN"`
	StaticDir     string        `env:"STATIC_DIR"`

	// Game
	Variant     string        `env:"GAME_VARIANT" envDefault:"classic"`
	Elements    []string      `env:"GAME_ELEMENTS" envSeparator:","`
	CommitDelay time.Duration `env:"GAME_COMMIT_DELAY" envDefault:"1s"`

	// Round archive, both optional. Postgres wins when both are set.
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	APIRateLimit   int           `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow  time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	PlayRateLimit  int           `env:"PLAY_RATE_LIMIT" envDefault:"60"`
	PlayRateWindow time.Duration `env:"PLAY_RATE_WINDOW" envDefault:"1m"`
}

// Load reads .env (if present) and the environment, exiting on invalid config
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse reads the environment without touching .env
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	// GAME_ELEMENTS="Rock, Paper, Scissors"
	for i, el := range cfg.Elements {
		cfg.Elements[i] = strings.TrimSpace(el)
	}

	explicit := cfg.Elements
	els, err := game.ResolveElements(game.VariantName(cfg.Variant), explicit)
	if err != nil {
		return nil, fmt.Errorf("game elements: %w", err)
	}
	cfg.Elements = els
	if len(explicit) > 0 {
		cfg.Variant = string(game.VariantCustom)
	}

	if cfg.CommitDelay <= 0 {
		return nil, errors.New("GAME_COMMIT_DELAY must be positive")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL must be positive")
	}

	return cfg, nil
}
