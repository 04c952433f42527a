// Package config loads pubsim settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings shared by the run and serve commands.
type Config struct {
	Seed          uint64
	DBPath        string
	APIAddr       string
	AdminKey      string
	RoundInterval time.Duration
	Weeks         int
	LogLevel      string
	LogJSON       bool
	Autopilot     bool
	Seasons       bool
	Rivals        bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Seed:          42,
		DBPath:        "data/pubsim.db",
		APIAddr:       ":8080",
		RoundInterval: 500 * time.Millisecond,
		Weeks:         4,
		LogLevel:      "info",
		Autopilot:     true,
	}
}

// Load reads PUBSIM_* variables over the defaults. Malformed values are
// logged and ignored.
func Load() Config {
	cfg := Default()

	cfg.Seed = envUintOrDefault("PUBSIM_SEED", cfg.Seed)
	cfg.DBPath = envOrDefault("PUBSIM_DB_PATH", cfg.DBPath)
	cfg.APIAddr = envOrDefault("PUBSIM_API_ADDR", cfg.APIAddr)
	cfg.AdminKey = os.Getenv("PUBSIM_ADMIN_KEY")
	cfg.RoundInterval = envDurationOrDefault("PUBSIM_ROUND_INTERVAL", cfg.RoundInterval)
	if n := envIntOrDefault("PUBSIM_WEEKS", cfg.Weeks); n > 0 {
		cfg.Weeks = n
	}
	cfg.LogLevel = strings.ToLower(envOrDefault("PUBSIM_LOG_LEVEL", cfg.LogLevel))
	cfg.LogJSON = envBoolOrDefault("PUBSIM_LOG_JSON", cfg.LogJSON)
	cfg.Autopilot = envBoolOrDefault("PUBSIM_AUTOPILOT", cfg.Autopilot)
	cfg.Seasons = envBoolOrDefault("PUBSIM_SEASONS", cfg.Seasons)
	cfg.Rivals = envBoolOrDefault("PUBSIM_RIVALS", cfg.Rivals)

	return cfg
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring malformed setting", "key", key, "value", v)
	}
	return defaultVal
}

func envUintOrDefault(key string, defaultVal uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
		slog.Warn("ignoring malformed setting", "key", key, "value", v)
	}
	return defaultVal
}

func envBoolOrDefault(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("ignoring malformed setting", "key", key, "value", v)
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		slog.Warn("ignoring malformed setting", "key", key, "value", v)
	}
	return defaultVal
}
