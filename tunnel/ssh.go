package tunnel

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	bderr "bankd/internal/errors"
	"bankd/util"
)

// BastionConfig holds everything needed to dial an SSH bastion.
type BastionConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// SSHBastion implements [Tunnel] by opening an SSH connection and
// forwarding the bank protocol stream with ssh.Client.Dial.
type SSHBastion struct {
	config *BastionConfig
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
}

// NewSSHBastion creates a tunnel that is ready to [Connect].
func NewSSHBastion(cfg *BastionConfig, logger *util.Logger) *SSHBastion {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHBastion{config: cfg, logger: logger}
}

// Connect dials the bastion and completes the SSH handshake.
func (t *SSHBastion) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(t.config)
	if err != nil {
		return bderr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(t.config)
	if err != nil {
		return bderr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         t.config.ConnTimeout,
	}

	addr := util.FormatAddr(t.config.Host, t.config.Port)
	t.logger.Debug("SSH: dialing %s as %s", addr, t.config.User)

	// Context-aware TCP dial so callers can cancel mid-handshake.
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return bderr.Wrap("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return bderr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}

	t.mu.Lock()
	t.client = ssh.NewClient(sshConn, chans, reqs)
	t.alive = true
	t.mu.Unlock()

	go t.monitor()

	return nil
}

// Dial forwards a connection to the bank server through the bastion.
func (t *SSHBastion) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client := t.client
	alive := t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, bderr.ErrNotConnected
	}

	t.logger.Debug("bastion: dialing %s %s", network, address)
	conn, err := client.Dial(network, address)
	if err != nil {
		return nil, bderr.Wrap("forward", address, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.
func (t *SSHBastion) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHBastion) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (t *SSHBastion) monitor() {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return
	}

	err := client.Wait()

	t.mu.Lock()
	t.alive = false
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("SSH bastion connection closed: %v", err)
	} else {
		t.logger.Debug("SSH bastion connection closed")
	}
}
