// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
// Per-run parameters (repository, lookback window, analysis mode) come from
// command-line flags instead.
type Config struct {
	GitHubToken string
	MaxRetries  int
	BaseDelay   time.Duration
	BatchSize   int
	BatchDelay  time.Duration
}

// HasGitHubToken returns true when a credential is configured. The token is
// required for every run; validation happens before any analysis work.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. GITHUB_TOKEN carries the credential. Optional variables with
// defaults: PRPULSE_MAX_RETRIES (3), PRPULSE_BASE_DELAY (1s),
// PRPULSE_BATCH_SIZE (10), PRPULSE_BATCH_DELAY (100ms).
func Load() (*Config, error) {
	token := os.Getenv("GITHUB_TOKEN")

	maxRetries := 3
	if v, ok := os.LookupEnv("PRPULSE_MAX_RETRIES"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("PRPULSE_MAX_RETRIES has invalid value %q", v)
		}
		maxRetries = parsed
	}

	baseDelay := time.Second
	if v, ok := os.LookupEnv("PRPULSE_BASE_DELAY"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PRPULSE_BASE_DELAY has invalid duration %q: %w", v, err)
		}
		baseDelay = parsed
	}

	batchSize := 10
	if v, ok := os.LookupEnv("PRPULSE_BATCH_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("PRPULSE_BATCH_SIZE has invalid value %q", v)
		}
		batchSize = parsed
	}

	batchDelay := 100 * time.Millisecond
	if v, ok := os.LookupEnv("PRPULSE_BATCH_DELAY"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PRPULSE_BATCH_DELAY has invalid duration %q: %w", v, err)
		}
		batchDelay = parsed
	}

	return &Config{
		GitHubToken: token,
		MaxRetries:  maxRetries,
		BaseDelay:   baseDelay,
		BatchSize:   batchSize,
		BatchDelay:  batchDelay,
	}, nil
}
