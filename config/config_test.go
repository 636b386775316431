package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazamuttaqien/loan-eligibility/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "REDIS_ENABLED", "QUOTE_CACHE_TTL", "TELEMETRY_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.SERVER_PORT)
	assert.Equal(t, 100, cfg.RATE_LIMIT_REQUESTS)
	assert.Equal(t, 15*time.Minute, cfg.RATE_LIMIT_WINDOW)
	assert.Equal(t, 10*time.Minute, cfg.QUOTE_CACHE_TTL)
	assert.False(t, cfg.REDIS_ENABLED)
	assert.True(t, cfg.TELEMETRY_ENABLED)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("QUOTE_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.SERVER_PORT)
	assert.True(t, cfg.REDIS_ENABLED)
	assert.Equal(t, 3, cfg.REDIS_DB)
	assert.Equal(t, 30*time.Second, cfg.QUOTE_CACHE_TTL)
	assert.Equal(t, 5, cfg.RATE_LIMIT_REQUESTS)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "")
	t.Setenv("METRIC_INTERVAL", "soon")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.METRIC_INTERVAL)
	assert.False(t, cfg.DEV_MODE)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Run("non-numeric port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "http")
		t.Setenv("RATE_LIMIT_REQUESTS", "")
		_, err := config.LoadConfig()
		assert.ErrorContains(t, err, "SERVER_PORT")
	})

	t.Run("non-positive rate limit", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "")
		t.Setenv("RATE_LIMIT_REQUESTS", "0")
		_, err := config.LoadConfig()
		assert.ErrorContains(t, err, "RATE_LIMIT_REQUESTS")
	})
}
