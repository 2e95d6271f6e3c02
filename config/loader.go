package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled in cmd/)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the REMOTE_PRINT_ prefix.

// LoadServerEnv overlays environment variables onto cfg.  Only
// non-empty env vars override the existing value.  This should be
// called BEFORE CLI flag parsing so that flags take precedence.
func LoadServerEnv(cfg *ServerConfig) {
	if v := os.Getenv("REMOTE_PRINT_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("REMOTE_PRINT_CERT"); v != "" {
		cfg.CertFile = v
	}
	if v := os.Getenv("REMOTE_PRINT_KEY"); v != "" {
		cfg.KeyFile = v
	}
	if v := os.Getenv("REMOTE_PRINT_PRINTER"); v != "" {
		cfg.Printer = v
	}
	if v := os.Getenv("REMOTE_PRINT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if d := envDuration("REMOTE_PRINT_SESSION_TTL"); d > 0 {
		cfg.SessionTTL = d
	}
}

// LoadClientEnv overlays environment variables onto cfg.
func LoadClientEnv(cfg *ClientConfig) {
	if v := os.Getenv("REMOTE_PRINT_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("REMOTE_PRINT_HOST"); v != "" {
		cfg.ServerName = v
	}
	if v := os.Getenv("REMOTE_PRINT_CA"); v != "" {
		cfg.CAFile = v
	}
	if v := os.Getenv("REMOTE_PRINT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
}

// envDuration parses a Go duration string ("4h", "30m").  Returns 0 on
// absence or parse failure.
func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
