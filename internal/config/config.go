package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	SessionTTLHours   int `env:"SESSION_TTL_HOURS" default:"168"` // 7 days
	MaxStreamsPerRole int `env:"MAX_STREAMS_PER_ROLE" default:"50"`

	StreamOpensPerSec float64 `env:"STREAM_OPENS_PER_SEC" default:"5"`
	StreamOpensBurst  int     `env:"STREAM_OPENS_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":   cfg.DatabaseURL,
		"REDIS_URL":      cfg.RedisURL,
		"SESSION_SECRET": cfg.SessionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(cfg.SessionSecret))
	}
	if cfg.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if cfg.MaxStreamsPerRole <= 0 {
		return fmt.Errorf("MAX_STREAMS_PER_ROLE must be positive")
	}
	if cfg.StreamOpensPerSec <= 0 {
		return fmt.Errorf("STREAM_OPENS_PER_SEC must be positive")
	}
	if cfg.StreamOpensBurst <= 0 {
		return fmt.Errorf("STREAM_OPENS_BURST must be positive")
	}

	return nil
}
