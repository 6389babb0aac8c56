// Package config assembles the service configuration from
// environment variables. Unset variables fall back to defaults;
// unparseable ones are warned about and ignored rather than fatal.
package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Defaults for every tunable.
const (
	DefaultHTTPAddr  = ":8000"
	DefaultWorkers   = 1
	DefaultRetention = 64
)

// Config holds everything the service reads at startup.
type Config struct {
	// HTTPAddr is the listen address (HTTP_ADDR).
	HTTPAddr string

	// Workers bounds how many sessions train concurrently
	// (WORKER_POOL_SIZE).
	Workers int

	// Retention is the retired-session cache size
	// (SESSION_RETENTION).
	Retention int

	// AllowedOrigins configures CORS (ALLOWED_ORIGINS,
	// comma-separated). Defaults to permissive.
	AllowedOrigins []string

	// DatabaseURL enables the Postgres session store when non-empty
	// (DATABASE_URL).
	DatabaseURL string
}

// FromEnv reads the configuration from the environment.
func FromEnv(logger *zap.Logger) Config {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := Config{
		HTTPAddr:       DefaultHTTPAddr,
		Workers:        DefaultWorkers,
		Retention:      DefaultRetention,
		AllowedOrigins: []string{"*"},
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	cfg.Workers = intEnv(logger, "WORKER_POOL_SIZE", cfg.Workers)
	cfg.Retention = intEnv(logger, "SESSION_RETENTION", cfg.Retention)

	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		var origins []string
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	return cfg
}

// intEnv parses a positive integer variable, warning and falling
// back on anything else.
func intEnv(logger *zap.Logger, key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		logger.Warn("ignoring invalid env value",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Int("fallback", fallback))
		return fallback
	}
	return v
}
