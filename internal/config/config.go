package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BackendURL string `envconfig:"PAYDESK_BACKEND_URL" default:"https://webfixx-backend.vercel.app/api"`
	DBPath     string `envconfig:"PAYDESK_DB_PATH" default:"./data/paydesk.sqlite"`
	Port       int    `envconfig:"PAYDESK_PORT" default:"8080"`
	LogLevel   string `envconfig:"PAYDESK_LOG_LEVEL" default:"info"`
	LogDir     string `envconfig:"PAYDESK_LOG_DIR" default:"./logs"`
	Network    string `envconfig:"PAYDESK_NETWORK" default:"mainnet"`

	// Outbound request budget against the remote backend, requests per second.
	BackendRPS int `envconfig:"PAYDESK_BACKEND_RPS" default:"5"`
}

// Load reads configuration from .env file (if present) then from environment variables.
// Environment variables override .env values.
func Load() (*Config, error) {
	// godotenv does NOT override already-set env vars, so real environment
	// variables take precedence over .env values.
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Network != "mainnet" && c.Network != "testnet" {
		return fmt.Errorf("%w: network must be \"mainnet\" or \"testnet\", got %q", ErrInvalidConfig, c.Network)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.BackendRPS < 1 {
		return fmt.Errorf("%w: backend RPS must be positive, got %d", ErrInvalidConfig, c.BackendRPS)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend URL %q is not an absolute URL", ErrInvalidConfig, c.BackendURL)
	}
	return nil
}
