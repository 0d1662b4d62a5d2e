package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.True(t, cfg.AutoAssign)
	assert.Equal(t, DefaultSweepInterval, cfg.SweepInterval)
	assert.Equal(t, 100, cfg.SweepBatch)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	// A dev secret is substituted with a warning outside production.
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/reviews.sqlite")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTO_ASSIGN", "false")
	t.Setenv("CRITICAL_DOC_TYPES", "runbook, api_reference")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/reviews.sqlite", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.AutoAssign)
	assert.Equal(t, []string{"runbook", "api_reference"}, cfg.CriticalDocTypes)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_InvalidSweepIntervalWarns(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultSweepInterval, cfg.SweepInterval)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestConfig_CriticalTypeSet(t *testing.T) {
	cfg := &Config{CriticalDocTypes: []string{"runbook", " api_reference ", ""}}
	set := cfg.CriticalTypeSet()
	assert.True(t, set["runbook"])
	assert.True(t, set["api_reference"])
	assert.Len(t, set, 2)
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.True(t, (&Config{Env: "Production"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
	assert.False(t, (&Config{}).IsProduction())
}
