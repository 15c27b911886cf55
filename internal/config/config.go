package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppEnv             = "development"
	defaultDBPath             = "./dev.db"
	defaultPort               = "8080"
	defaultPreferencesBackend = BackendSQLite
	defaultRedisAddr          = "localhost:6379"
	defaultMaxSnapshots       = 10
	defaultSessionIdleTimeout = 2 * time.Hour
	defaultLogLevel           = "info"
)

// Preference store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DBPath             string
	SessionSecret      string
	PreferencesBackend string
	RedisAddr          string
	MaxSnapshots       int
	SessionIdleTimeout time.Duration
	RippleConfigPath   string
	TenantsPath        string
	LogLevel           string
}

// Load reads environment variables and returns a populated Config.
// Malformed numeric or enumerated values are reported as errors.
func Load() (Config, error) {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppEnv:             envOr("APP_ENV", defaultAppEnv),
		Port:               envOr("PORT", defaultPort),
		DBPath:             envOr("DB_PATH", defaultDBPath),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		PreferencesBackend: strings.ToLower(envOr("PREFERENCES_BACKEND", defaultPreferencesBackend)),
		RedisAddr:          envOr("REDIS_ADDR", defaultRedisAddr),
		MaxSnapshots:       defaultMaxSnapshots,
		SessionIdleTimeout: defaultSessionIdleTimeout,
		RippleConfigPath:   os.Getenv("RIPPLE_CONFIG_PATH"),
		TenantsPath:        os.Getenv("TENANTS_PATH"),
		LogLevel:           strings.ToLower(envOr("LOG_LEVEL", defaultLogLevel)),
	}

	var errs []error
	if v := os.Getenv("MAX_SNAPSHOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("MAX_SNAPSHOTS must be a positive integer, got %q", v))
		} else {
			cfg.MaxSnapshots = n
		}
	}
	if v := os.Getenv("SESSION_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("SESSION_IDLE_TIMEOUT must be a positive duration, got %q", v))
		} else {
			cfg.SessionIdleTimeout = d
		}
	}
	switch cfg.PreferencesBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("PREFERENCES_BACKEND must be sqlite, redis or memory, got %q", cfg.PreferencesBackend))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == defaultAppEnv || c.AppEnv == "dev"
}

// Warnings lists settings that are allowed to be empty but probably should not be.
func (c Config) Warnings() []string {
	var out []string
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set; session cookies use an ephemeral key")
	}
	if !c.IsDev() && c.PreferencesBackend == BackendMemory {
		out = append(out, "PREFERENCES_BACKEND=memory outside development; preferences are lost on restart")
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
