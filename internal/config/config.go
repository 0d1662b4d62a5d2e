// Package config handles application configuration and environment loading.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultListenAddr    = ":8080"
	DefaultDBPath        = "docflow.sqlite"
	DefaultSweepInterval = 5 * time.Minute
	DefaultNotifyBuffer  = 256
)

// Config holds the configuration for the review workflow service.
type Config struct {
	DBPath     string // path to the SQLite store
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"
	JWTSecret  string // HS256 shared secret for bearer auth

	// Engine behavior
	AutoAssign       bool     // assign a reviewer directly on intake (default true)
	CriticalDocTypes []string // document types that boost derived priority
	RulesFile        string   // optional YAML file of approval rules to seed

	// Assignment sweeper (external caller of AssignPending)
	SweepInterval time.Duration // 0 disables the sweeper
	SweepBatch    int           // max reviews per sweep (default 100)

	// Notifications
	NotifyBuffer int // async notification queue size

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps LogLevel onto slog. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return level
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// CriticalTypeSet returns the critical document types as a lookup set.
func (c *Config) CriticalTypeSet() map[string]bool {
	set := make(map[string]bool, len(c.CriticalDocTypes))
	for _, t := range c.CriticalDocTypes {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	return set
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:        os.Getenv("DB_PATH"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RulesFile:     os.Getenv("RULES_FILE"),
		AutoAssign:    envBool("AUTO_ASSIGN", true),
		SweepInterval: DefaultSweepInterval,
		SweepBatch:    100,
		NotifyBuffer:  DefaultNotifyBuffer,
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	if v := os.Getenv("CRITICAL_DOC_TYPES"); v != "" {
		cfg.CriticalDocTypes = splitCSV(v)
	}

	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, "invalid SWEEP_INTERVAL "+strconv.Quote(v)+", using default")
		} else {
			cfg.SweepInterval = d
		}
	}
	if v := os.Getenv("SWEEP_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SweepBatch = n
		}
	}
	if v := os.Getenv("NOTIFY_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NotifyBuffer = n
		}
	}

	// Rate limiting
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 200
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	cfg.CORSAllowedOrigins = []string{"*"}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			cfg.Warnings = append(cfg.Warnings, "JWT_SECRET is not set in production; all API requests will be rejected")
		} else {
			cfg.JWTSecret = "dev-secret-change-in-production"
			cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using development default")
		}
	}

	return cfg, nil
}

// envBool reads a boolean environment variable, treating absence or an
// unparseable value as the default.
func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
