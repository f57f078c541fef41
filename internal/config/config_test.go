package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/ericfisherdev/prpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	// t.Setenv registers the restore; the optional variables must then be
	// unset entirely so the defaults apply.
	for _, key := range []string{"PRPULSE_MAX_RETRIES", "PRPULSE_BASE_DELAY", "PRPULSE_BATCH_SIZE", "PRPULSE_BATCH_DELAY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.HasGitHubToken())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.BatchDelay)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_testtoken")
	t.Setenv("PRPULSE_MAX_RETRIES", "5")
	t.Setenv("PRPULSE_BASE_DELAY", "2s")
	t.Setenv("PRPULSE_BATCH_SIZE", "25")
	t.Setenv("PRPULSE_BATCH_DELAY", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasGitHubToken())
	assert.Equal(t, "ghp_testtoken", cfg.GitHubToken)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.BatchDelay)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric retries", key: "PRPULSE_MAX_RETRIES", value: "many"},
		{name: "negative retries", key: "PRPULSE_MAX_RETRIES", value: "-1"},
		{name: "bad delay", key: "PRPULSE_BASE_DELAY", value: "soon"},
		{name: "zero batch size", key: "PRPULSE_BATCH_SIZE", value: "0"},
		{name: "bad batch delay", key: "PRPULSE_BATCH_DELAY", value: "later"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
