// Package config loads server settings from NAJDENO_* environment variables.
// Command-line flags in cmd/najdeno override what is loaded here.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings.
type Config struct {
	DBPath  string `env:"NAJDENO_DB"   envDefault:"najdeno.sqlite3"`
	Addr    string `env:"NAJDENO_ADDR" envDefault:":8080"`
	LogPath string `env:"NAJDENO_LOG"`

	// JWTSecret signs identity tokens. When empty, a secret is generated on
	// first run and kept in the settings table.
	JWTSecret string `env:"NAJDENO_JWT_SECRET"`

	// MatcherURL is the base URL of the external scoring service. When empty,
	// items have no matches.
	MatcherURL     string        `env:"NAJDENO_MATCHER_URL"`
	MatcherTimeout time.Duration `env:"NAJDENO_MATCHER_TIMEOUT" envDefault:"5s"`

	// Admin account created on first run.
	AdminUniversityID string `env:"NAJDENO_ADMIN_UNIVERSITY_ID" envDefault:"admin"`
	AdminName         string `env:"NAJDENO_ADMIN_NAME"          envDefault:"Administrator"`

	OTelEndpoint string `env:"NAJDENO_OTEL_ENDPOINT"`
}

// Load reads the environment into a Config with defaults applied.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MatcherTimeout <= 0 {
		return Config{}, fmt.Errorf("NAJDENO_MATCHER_TIMEOUT must be positive, got %s", cfg.MatcherTimeout)
	}
	return cfg, nil
}
