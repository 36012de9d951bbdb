// Package common provides shared utilities for marketpulse
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for marketpulse
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Client      ClientConfig    `toml:"client"`
	Refresh     RefreshConfig   `toml:"refresh"`
	Universes   UniversesConfig `toml:"universes"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds snapshot store configuration.
// Backend is "badger" (embedded BadgerHold, default) or "file" (JSON per ticker).
type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// ClientConfig holds market-data provider client configuration
type ClientConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RefreshConfig holds cache refresh pacing and scheduling configuration
type RefreshConfig struct {
	SnapshotTTL string `toml:"snapshot_ttl"` // staleness window, default "1h"
	BatchSize   int    `toml:"batch_size"`   // tickers per concurrent batch
	BatchDelay  string `toml:"batch_delay"`  // pause between batches
	TickerDelay string `toml:"ticker_delay"` // pause between tickers (sequential mode)
	Schedule    string `toml:"schedule"`     // cron spec for the background full refresh
	WarmCache   bool   `toml:"warm_cache"`   // pre-fetch primary universe on startup
}

// GetSnapshotTTL parses and returns the staleness window.
func (c *RefreshConfig) GetSnapshotTTL() time.Duration {
	d, err := time.ParseDuration(c.SnapshotTTL)
	if err != nil || d <= 0 {
		return DefaultSnapshotTTL
	}
	return d
}

// GetBatchDelay parses and returns the inter-batch pacing delay.
func (c *RefreshConfig) GetBatchDelay() time.Duration {
	d, err := time.ParseDuration(c.BatchDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// GetTickerDelay parses and returns the inter-ticker pacing delay.
func (c *RefreshConfig) GetTickerDelay() time.Duration {
	d, err := time.ParseDuration(c.TickerDelay)
	if err != nil || d < 0 {
		return 200 * time.Millisecond
	}
	return d
}

// GetBatchSize returns the batch size, defaulting to 10.
func (c *RefreshConfig) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return 10
	}
	return c.BatchSize
}

// UniversesConfig holds the curated ticker universes. Empty lists fall back
// to the built-in defaults (see universes.go).
type UniversesConfig struct {
	Primary  []string `toml:"primary"`
	Expanded []string `toml:"expanded"`
	IPOs     []string `toml:"ipos"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "data/snapshots",
		},
		Client: ClientConfig{
			BaseURL:   "https://marketdata.pulse.dev/api",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Refresh: RefreshConfig{
			SnapshotTTL: "1h",
			BatchSize:   10,
			BatchDelay:  "1s",
			TickerDelay: "200ms",
			Schedule:    "0 6 * * *",
			WarmCache:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	applyUniverseDefaults(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETPULSE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("MARKETPULSE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("MARKETPULSE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("MARKETPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("MARKETPULSE_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "snapshots")
	}

	if backend := os.Getenv("MARKETPULSE_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}

	if url := os.Getenv("MARKETPULSE_CLIENT_BASE_URL"); url != "" {
		config.Client.BaseURL = url
	}

	if key := os.Getenv("MARKETPULSE_API_KEY"); key != "" {
		config.Client.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
