package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("CACHE_TTL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "nextgen:", cfg.CachePrefix)
	assert.Equal(t, 30*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("PIN_RATE_LIMIT", "3")
	t.Setenv("PIN_RATE_WINDOW", "30s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, 3, cfg.PINRateLimit)
	assert.Equal(t, 30*time.Second, cfg.PINRateWindow)
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	t.Setenv("SESSION_DURATION", "forever")
	assert.Equal(t, time.Hour, getDuration("SESSION_DURATION", time.Hour))

	t.Setenv("SESSION_DURATION", "-5m")
	assert.Equal(t, time.Hour, getDuration("SESSION_DURATION", time.Hour))
}
