// Package server runs the bank service: a TCP accept loop that hands
// each connection to its own worker, plus the periodic account
// reporter.  All cross-connection state lives in the bank store.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"bankd/bank"
	"bankd/config"
	"bankd/internal/metrics"
	"bankd/util"
)

// Server owns the listener, the store, and the worker pool for one
// bank service instance.
type Server struct {
	cfg     *config.Config
	store   *bank.Store
	logger  *util.Logger
	metrics *metrics.Collector

	wg sync.WaitGroup
}

// New returns a ready-to-serve Server.  The collector may be nil.
func New(cfg *config.Config, store *bank.Store, logger *util.Logger, collector *metrics.Collector) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		metrics: collector,
	}
}

// Serve listens and accepts connections until ctx is cancelled, then
// drains workers for at most the configured grace period.  The
// reporter runs alongside for the lifetime of ctx.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.ListenPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()

	s.logger.Info("bank server waiting for connections on %s", ln.Addr())
	s.logger.Verbose("capacity %d accounts, report every %s", s.store.Capacity(), s.cfg.ReportInterval)

	// Shut the listener down when the context expires.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	reporter := NewReporter(s.store, s.cfg.ReportInterval, os.Stdout, s.logger, s.metrics)
	go reporter.Run(ctx)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return s.drain()
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		s.logger.Verbose("connection from %s", conn.RemoteAddr())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle runs one worker, making sure the connection unblocks when the
// server shuts down.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)

	// Reads have no deadline (a client may sit idle between commands
	// indefinitely), so shutdown must close the socket to unblock them.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	newWorker(conn, bank.NewSession(s.store), s.logger, s.metrics).Run(ctx)
}

// drain waits for in-flight workers up to the grace period.
func (s *Server) drain() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	grace := s.cfg.GracePeriod
	if grace <= 0 {
		grace = config.DefaultGracePeriod
	}

	select {
	case <-done:
		s.logger.Info("server shut down cleanly")
		return nil
	case <-time.After(grace):
		s.logger.Warn("grace period exceeded with %d connections still open", s.metrics.ActiveConnections())
		return nil
	}
}
