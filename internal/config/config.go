package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

var ErrInsecureSecret = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	JWTExpiry      time.Duration
	AutoMigrate    bool
}

// IsProduction reports whether the service runs with ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment. Callers load any .env
// file beforehand.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:    getEnv("DATABASE_DSN", "todosapp.db"),
		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
	}

	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "20m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse JWT_EXPIRY: %w", err)
	}
	if expiry <= 0 {
		return Config{}, fmt.Errorf("JWT_EXPIRY must be positive, got %s", expiry)
	}
	cfg.JWTExpiry = expiry

	autoMigrate, err := strconv.ParseBool(getEnv("AUTO_MIGRATE", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse AUTO_MIGRATE: %w", err)
	}
	cfg.AutoMigrate = autoMigrate

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("unknown LOG_LEVEL %q", cfg.LogLevel)
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrInsecureSecret
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
