// Package cmd wires up the CLI flags and dispatches to serve or
// connect mode.
package cmd

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"bankd/client"
	"bankd/config"
	"bankd/internal/metrics"
	"bankd/server"
	"bankd/storage"
	"bankd/tunnel"
	"bankd/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X bankd/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the appropriate bankd mode.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("bankd", flag.ContinueOnError)

	// ── mode ─────────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Serve mode: run the bank service")
	fs.IntVarP(&cfg.ListenPort, "port", "p", cfg.ListenPort, "Serve mode bind port")

	// ── bank ─────────────────────────────────────────────────────
	fs.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "Maximum number of accounts")
	fs.DurationVar(&cfg.ReportInterval, "report-interval", cfg.ReportInterval, "Period of the account table report")
	fs.StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "Snapshot file to attach to (serve mode)")
	fs.DurationVar(&cfg.GracePeriod, "grace-period", cfg.GracePeriod, "Shutdown wait for open connections")
	fs.DurationVarP(&cfg.DialTimeout, "timeout", "w", cfg.DialTimeout, "Connection timeout")

	// ── SSH bastion ──────────────────────────────────────────────
	fs.StringVarP(&cfg.BastionSpec, "bastion", "T", "", "Reach the server via SSH [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("bankd %s\n", version)
		return nil
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── bastion spec ─────────────────────────────────────────────
	if cfg.BastionSpec != "" {
		user, host, port, err := config.ParseBastionSpec(cfg.BastionSpec)
		if err != nil {
			return fmt.Errorf("bastion: %w", err)
		}
		cfg.BastionEnabled = true
		cfg.BastionUser = user
		cfg.BastionHost = host
		cfg.BastionPort = port
	}

	// ── defaults & validation ────────────────────────────────────
	if cfg.Listen && cfg.ListenPort == 0 {
		cfg.ListenPort = config.DefaultPort
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)

	if cfg.Listen {
		return runServe(ctx, cfg, logger)
	}
	return runConnect(ctx, cfg, logger)
}

// ── modes ────────────────────────────────────────────────────────────

func runServe(ctx context.Context, cfg *config.Config, logger *util.Logger) error {
	store, err := storage.Attach(cfg.StateFile, cfg.Capacity)
	if err != nil {
		return fmt.Errorf("attach store: %w", err)
	}
	if cfg.StateFile != "" {
		logger.Info("attached to store %s with %d committed accounts", cfg.StateFile, store.Len())
	}

	srv := server.New(cfg, store, logger.WithSubsystem("server"), metrics.New())
	serveErr := srv.Serve(ctx)

	if cfg.StateFile != "" {
		if err := storage.Save(cfg.StateFile, store); err != nil {
			logger.Error("saving store state: %v", err)
			if serveErr == nil {
				serveErr = err
			}
		}
	}
	return serveErr
}

func runConnect(ctx context.Context, cfg *config.Config, logger *util.Logger) error {
	var tun tunnel.Tunnel
	if cfg.BastionEnabled {
		tun = tunnel.NewSSHBastion(&tunnel.BastionConfig{
			User:          cfg.BastionUser,
			Host:          cfg.BastionHost,
			Port:          cfg.BastionPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.DialTimeout,
		}, logger)
	}

	return client.New(cfg, tun, logger.WithSubsystem("client")).Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	if cfg.Listen {
		if len(remaining) > 0 {
			return fmt.Errorf("serve mode takes no positional arguments")
		}
		return nil
	}

	// Connect mode: host [port]
	if len(remaining) < 1 {
		return fmt.Errorf("server hostname required (use --help for usage)")
	}
	cfg.Host = remaining[0]

	switch len(remaining) {
	case 1:
		cfg.Port = config.DefaultPort
	case 2:
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments for connect mode")
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `bankd – multi-client bank service v%s

A line-protocol banking server and its interactive client.

Usage:
  bankd -l [-p <port>] [options]              Serve
  bankd [options] <host> [port]               Connect
  bankd -T user@bastion <host> [port]         Connect via SSH bastion

Commands (connect mode):
  open NAME      create an account
  start NAME     begin an exclusive session on an account
  credit AMOUNT  add funds (requires a session)
  debit AMOUNT   remove funds (requires a session)
  balance        show the balance (requires a session)
  finish         end the session
  exit           close the connection

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  bankd -l                                    Serve on %d
  bankd -l -p 9000 --state-file bank.json     Serve with persistence
  bankd bank.example.com                      Connect
  bankd -T admin@bastion bank-internal 3499   Connect through a bastion
`, config.DefaultPort)
}
