package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the BANKD_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("BANKD_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("BANKD_PORT"); v > 0 {
		cfg.ListenPort = v
	}
	if envBool("BANKD_LISTEN") {
		cfg.Listen = true
	}
	if v := envInt("BANKD_CAPACITY"); v > 0 {
		cfg.Capacity = v
	}
	if v := envDuration("BANKD_REPORT_INTERVAL"); v > 0 {
		cfg.ReportInterval = v
	}
	if v := os.Getenv("BANKD_STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := envDuration("BANKD_GRACE_PERIOD"); v > 0 {
		cfg.GracePeriod = v
	}
	if v := os.Getenv("BANKD_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if v := os.Getenv("BANKD_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}
	if envBool("BANKD_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("BANKD_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := envInt("BANKD_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// envDuration accepts either a Go duration string ("20s", "1m") or a
// bare number of seconds.
func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return 0
}
