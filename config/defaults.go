package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the port the bank service listens on, and the
	// port the client dials when none is given.
	DefaultPort = 3499

	// DefaultCapacity is the maximum number of accounts a store will
	// ever hold.  Capacity is a lifetime ceiling: accounts are never
	// deleted and freed slots are never reused.
	DefaultCapacity = 20

	// DefaultReportInterval is how often the server prints the full
	// account table.
	DefaultReportInterval = 20 * time.Second

	// DefaultGracePeriod is how long shutdown waits for connection
	// workers to finish before giving up on them.
	DefaultGracePeriod = 5 * time.Second

	// DefaultDialTimeout is the TCP/SSH connection timeout for the
	// client.
	DefaultDialTimeout = 30 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnectBackoff is the delay before the client's first
	// reconnect attempt; subsequent attempts back off from here.
	DefaultConnectBackoff = 3 * time.Second
)
