// Package config loads environment-based configuration for the liga
// client. A .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration.
type Config struct {
	// APIBaseURL is the origin of the remote liga API.
	APIBaseURL string `env:"LIGA_API_BASE_URL" envDefault:"https://localhost:8090"`

	// StateFile is the bbolt database holding the persisted token
	// record. Defaults to ~/.ligactl/tokens.db.
	StateFile string `env:"LIGA_STATE_FILE"`

	// RefreshBuffer is subtracted from the access token's expiry to
	// compute the proactive refresh deadline.
	RefreshBuffer time.Duration `env:"LIGA_REFRESH_BUFFER" envDefault:"5m"`

	// HTTPTimeout bounds each API call.
	HTTPTimeout time.Duration `env:"LIGA_HTTP_TIMEOUT" envDefault:"10s"`

	// Logging controls.
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from environment variables, attempting a .env
// file first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.StateFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}

		cfg.StateFile = filepath.Join(home, ".ligactl", "tokens.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("LIGA_API_BASE_URL must not be empty")
	}

	if c.RefreshBuffer <= 0 {
		return fmt.Errorf("LIGA_REFRESH_BUFFER must be positive, got %s", c.RefreshBuffer)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("LIGA_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	return nil
}
