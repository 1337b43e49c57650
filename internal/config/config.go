// Package config loads runtime configuration from the environment.
//
// Configuration comes from env vars, optionally seeded from a local .env
// file (godotenv). The struct tags drive parsing via caarlos0/env, so adding
// an option is a one-line change here rather than plumbing through main.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Address is the interface to bind; empty means all interfaces.
	Address  string        `env:"ADDRESS" envDefault:""`
	Port     int           `env:"PORT" envDefault:"8080"`
	DBPath   string        `env:"DB_PATH" envDefault:"data/promptstore.db"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`

	// JWTSecret signs access tokens. Required, at least 16 bytes.
	// Generate one with: openssl rand -hex 32
	JWTSecret string `env:"JWT_SECRET"`
}

// Load reads .env (if present) and the process environment, then validates.
//
// A missing .env file is not an error — production deployments set real
// env vars and ship no file. Validation failures ARE errors: the server
// must not start with a missing or weak signing secret, because every
// issued token would be forgeable.
func Load() (Config, error) {
	// Ignore the error: godotenv returns one when .env doesn't exist,
	// which is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 16 {
		return Config{}, errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, errors.New("config: TOKEN_TTL must be positive")
	}

	return cfg, nil
}
