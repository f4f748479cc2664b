// Package config loads client settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the client settings.
type Config struct {
	// BackendURL is the origin of the REST backend.
	BackendURL string

	// HTTPTimeout bounds each backend call.
	HTTPTimeout time.Duration

	// SessionDBPath is the sqlite file that keeps the session cookie between runs.
	// Empty keeps the session in memory only.
	SessionDBPath string

	LogLevel string

	// MetricsAddr exposes Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string
}

// Load reads envFiles (ignoring missing ones) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("BACKEND_URL", "http://localhost:4000")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("SESSION_DB_PATH", "./data/session.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ADDR", "")

	cfg := &Config{
		BackendURL:    strings.TrimRight(strings.TrimSpace(v.GetString("BACKEND_URL")), "/"),
		HTTPTimeout:   v.GetDuration("HTTP_TIMEOUT"),
		SessionDBPath: strings.TrimSpace(v.GetString("SESSION_DB_PATH")),
		LogLevel:      v.GetString("LOG_LEVEL"),
		MetricsAddr:   strings.TrimSpace(v.GetString("METRICS_ADDR")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL %q must be an absolute http(s) URL", c.BackendURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}
