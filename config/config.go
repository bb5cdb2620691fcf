// Package config defines the runtime configuration for bankd and provides
// helpers for parsing ports and SSH bastion specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Config holds every tuneable for a single bankd invocation, covering
// both serve (-l) and connect modes.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host        string // connect mode: server host
	Port        int    // connect mode: server port
	ListenPort  int    // -p: serve mode bind port
	Listen      bool
	DialTimeout time.Duration

	// ── Bank ─────────────────────────────────────────────────────────
	Capacity       int           // maximum number of accounts ever created
	ReportInterval time.Duration // period of the account table report
	StateFile      string        // snapshot path; empty = in-memory only
	GracePeriod    time.Duration // how long shutdown waits for workers

	// ── SSH bastion ──────────────────────────────────────────────────
	BastionSpec    string // raw user@host[:port] from -T
	BastionEnabled bool
	BastionUser    string
	BastionHost    string
	BastionPort    int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ── Port helper ──────────────────────────────────────────────────────

// ParsePort parses a decimal TCP port and range-checks it.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Bastion-spec parser ──────────────────────────────────────────────

// bastionRe matches [user@]host[:port].
var bastionRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseBastionSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseBastionSpec(spec string) (user, host string, port int, err error) {
	m := bastionRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid bastion spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid bastion port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("bastion host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Listen {
		if c.ListenPort == 0 {
			return fmt.Errorf("serve mode requires -p <port>")
		}
		if c.BastionEnabled {
			return fmt.Errorf("serve mode behind an SSH bastion is not supported")
		}
		if c.Capacity < 1 {
			return fmt.Errorf("account capacity must be at least 1")
		}
		if c.ReportInterval <= 0 {
			return fmt.Errorf("report interval must be positive")
		}
	} else {
		if c.Host == "" {
			return fmt.Errorf("server hostname is required (use --help for usage)")
		}
		if c.Port == 0 {
			return fmt.Errorf("server port is required")
		}
		if c.StateFile != "" {
			return fmt.Errorf("--state-file only applies to serve mode")
		}
	}

	if c.BastionEnabled && c.BastionHost == "" {
		return fmt.Errorf("bastion host is required")
	}

	return nil
}

// ApplyDefaults fills zero-valued bank tuneables so that both the CLI
// and programmatic construction (tests) get the same behaviour.
func (c *Config) ApplyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.ReportInterval == 0 {
		c.ReportInterval = DefaultReportInterval
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
}
