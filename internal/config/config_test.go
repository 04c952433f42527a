package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PUBSIM_SEED", "PUBSIM_DB_PATH", "PUBSIM_API_ADDR", "PUBSIM_ADMIN_KEY",
		"PUBSIM_ROUND_INTERVAL", "PUBSIM_WEEKS", "PUBSIM_LOG_LEVEL", "PUBSIM_LOG_JSON", "PUBSIM_AUTOPILOT"} {
		t.Setenv(k, "")
	}

	assert.Equal(t, Default(), Load())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PUBSIM_SEED", "7")
	t.Setenv("PUBSIM_DB_PATH", "/tmp/x.db")
	t.Setenv("PUBSIM_ADMIN_KEY", "secret")
	t.Setenv("PUBSIM_ROUND_INTERVAL", "50ms")
	t.Setenv("PUBSIM_WEEKS", "12")
	t.Setenv("PUBSIM_LOG_LEVEL", "DEBUG")
	t.Setenv("PUBSIM_LOG_JSON", "true")
	t.Setenv("PUBSIM_AUTOPILOT", "false")
	t.Setenv("PUBSIM_SEASONS", "true")
	t.Setenv("PUBSIM_RIVALS", "1")

	cfg := Load()
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "secret", cfg.AdminKey)
	assert.Equal(t, 50*time.Millisecond, cfg.RoundInterval)
	assert.Equal(t, 12, cfg.Weeks)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.LogJSON)
	assert.False(t, cfg.Autopilot)
	assert.True(t, cfg.Seasons)
	assert.True(t, cfg.Rivals)
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	t.Setenv("PUBSIM_SEED", "-3")
	t.Setenv("PUBSIM_WEEKS", "0")
	t.Setenv("PUBSIM_ROUND_INTERVAL", "soon")
	t.Setenv("PUBSIM_LOG_JSON", "maybe")

	cfg := Load()
	def := Default()
	assert.Equal(t, def.Seed, cfg.Seed)
	assert.Equal(t, def.Weeks, cfg.Weeks)
	assert.Equal(t, def.RoundInterval, cfg.RoundInterval)
	assert.False(t, cfg.LogJSON)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warning"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "loud"}.SlogLevel())
}
