// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// APIToken is the OAuth bearer token for the Data API. Empty means
	// no API credential; resolution uses the fallback chain only.
	APIToken string `json:"api_token"`

	// Quota settings
	QuotaCeiling  int    `json:"quota_ceiling"`
	QuotaTimezone string `json:"quota_timezone"`

	// Aggregation settings
	ConcurrencyCap  int `json:"concurrency_cap"`
	PerChannelLimit int `json:"per_channel_limit"`
	PageSize        int `json:"page_size"`

	// HTTP settings
	HTTPTimeout            time.Duration `json:"http_timeout"`
	FallbackAttemptTimeout time.Duration `json:"fallback_attempt_timeout"`

	// Store settings
	StorePath string `json:"store_path"`

	// Retry settings
	MaxRetries        int           `json:"max_retries"`
	InitialBackoff    time.Duration `json:"initial_backoff"`
	MaxBackoff        time.Duration `json:"max_backoff"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		QuotaCeiling:           10000,
		QuotaTimezone:          "America/Los_Angeles",
		ConcurrencyCap:         5,
		PerChannelLimit:        25,
		PageSize:               20,
		HTTPTimeout:            30 * time.Second,
		FallbackAttemptTimeout: 8 * time.Second,
		StorePath:              defaultStorePath(),
		MaxRetries:             3,
		InitialBackoff:         1 * time.Second,
		MaxBackoff:             30 * time.Second,
		BackoffMultiplier:      2.0,
	}
}

func defaultStorePath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "ytfeed", "store.json")
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytfeed.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytfeed.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytfeed", "ytfeed.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTFEED_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("YTFEED_QUOTA_CEILING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QuotaCeiling = n
		}
	}
	if v := os.Getenv("YTFEED_QUOTA_TIMEZONE"); v != "" {
		c.QuotaTimezone = v
	}
	if v := os.Getenv("YTFEED_CONCURRENCY_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConcurrencyCap = n
		}
	}
	if v := os.Getenv("YTFEED_PER_CHANNEL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PerChannelLimit = n
		}
	}
	if v := os.Getenv("YTFEED_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
	if v := os.Getenv("YTFEED_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("YTFEED_FALLBACK_ATTEMPT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.FallbackAttemptTimeout = d
		}
	}
	if v := os.Getenv("YTFEED_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("YTFEED_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("YTFEED_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("YTFEED_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.QuotaCeiling <= 0 {
		return fmt.Errorf("quota_ceiling must be positive")
	}
	if _, err := time.LoadLocation(c.QuotaTimezone); err != nil {
		return fmt.Errorf("quota_timezone: %w", err)
	}
	if c.ConcurrencyCap <= 0 {
		return fmt.Errorf("concurrency_cap must be positive")
	}
	if c.PerChannelLimit < 0 {
		return fmt.Errorf("per_channel_limit must be non-negative")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.FallbackAttemptTimeout <= 0 {
		return fmt.Errorf("fallback_attempt_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}
