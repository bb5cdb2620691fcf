// Package client implements the interactive bank client: it dials the
// server (directly or through an SSH bastion) and wires the connection
// to the local terminal.
package client

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/term"

	"bankd/config"
	bderr "bankd/internal/errors"
	"bankd/internal/retry"
	"bankd/tunnel"
	"bankd/util"
)

// Client runs one interactive session against a bank server.
type Client struct {
	cfg    *config.Config
	tunnel tunnel.Tunnel // nil for a direct connection
	logger *util.Logger
}

// New returns a ready-to-run Client.
func New(cfg *config.Config, tun tunnel.Tunnel, logger *util.Logger) *Client {
	return &Client{cfg: cfg, tunnel: tun, logger: logger}
}

// Run connects and relays between the server and stdin/stdout until
// the server closes the stream, stdin ends, or ctx is cancelled.  A
// server that is not up yet is retried with backoff rather than
// reported as an error.
func (c *Client) Run(ctx context.Context) error {
	if c.tunnel != nil {
		c.logger.Verbose("establishing SSH bastion connection")
		if err := c.tunnel.Connect(ctx); err != nil {
			return fmt.Errorf("bastion: %w", err)
		}
		defer c.tunnel.Close()
		c.logger.Verbose("bastion connection established")
	}

	addr := util.FormatAddr(c.cfg.Host, c.cfg.Port)

	var conn net.Conn
	backoff := &retry.Backoff{
		InitialDelay: config.DefaultConnectBackoff,
		Jitter:       true,
	}
	err := backoff.Do(ctx, func(attempt int) error {
		var err error
		conn, err = c.dial(ctx, addr)
		if err == nil {
			return nil
		}
		if !bderr.IsRetryable(err) {
			return retry.Permanent(err)
		}
		c.logger.Warn("connect to %s failed (attempt %d): %v – retrying", addr, attempt, err)
		return err
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	c.logger.Verbose("connected to %s", conn.RemoteAddr())
	if c.interactive() {
		fmt.Fprintln(os.Stderr, "Connected. Welcome to the bank.")
	}

	if err := util.BidirectionalCopy(ctx, conn, os.Stdin, os.Stdout); err != nil {
		return err
	}
	if ctx.Err() == nil && c.interactive() {
		fmt.Fprintln(os.Stderr, "Connection to the server has been lost!")
	}
	return nil
}

// dial opens the raw connection, through the bastion when configured.
func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	if c.tunnel != nil {
		return c.tunnel.Dial(ctx, "tcp", addr)
	}

	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, bderr.Wrap("dial", addr, err)
	}
	return conn, nil
}

// interactive reports whether stdin is a terminal, which decides
// whether user-facing chatter is printed around the raw relay.
func (c *Client) interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
