package bank

import (
	"context"

	"github.com/shopspring/decimal"
)

// SessionState tracks whether a connection worker is bound to an
// account.
type SessionState int

const (
	// StateIdle means the worker is not bound to any account.
	StateIdle SessionState = iota
	// StateActive means the worker holds an account's session lock.
	StateActive
	// StateClosed is terminal; the connection is done.
	StateClosed
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-connection state machine.  Each worker owns
// exactly one Session and drives it from a single goroutine, so the
// struct needs no locking of its own; all cross-worker coordination
// happens through the store's locks.
//
// A rejected command leaves the state unchanged.
type Session struct {
	store *Store
	state SessionState
	bound int // index of the bound account while Active
}

// NewSession returns an Idle session over store.
func NewSession(store *Store) *Session {
	return &Session{store: store}
}

// State returns the current state.
func (s *Session) State() SessionState { return s.state }

// AccountName returns the name of the bound account while Active.
func (s *Session) AccountName() (string, bool) {
	if s.state != StateActive {
		return "", false
	}
	name, err := s.store.Name(s.bound)
	if err != nil {
		return "", false
	}
	return name, true
}

// Open creates a new account.  Opening does not bind the session; a
// subsequent start is required before moving money.
func (s *Session) Open(name string) error {
	switch s.state {
	case StateActive:
		return ErrAlreadyInSession
	case StateClosed:
		return ErrSessionClosed
	}
	_, err := s.store.Create(name)
	return err
}

// Start binds the session to the named account, blocking until its
// session lock is free.  Another worker holding the lock keeps us
// waiting indefinitely; only ctx cancellation (process shutdown)
// unblocks early.
func (s *Session) Start(ctx context.Context, name string) error {
	switch s.state {
	case StateActive:
		return ErrAlreadyInSession
	case StateClosed:
		return ErrSessionClosed
	}
	idx, err := s.store.Lookup(name)
	if err != nil {
		return err
	}
	if err := s.store.StartSession(ctx, idx); err != nil {
		return err
	}
	s.state = StateActive
	s.bound = idx
	return nil
}

// Credit adds amt to the bound account.
func (s *Session) Credit(amt decimal.Decimal) (decimal.Decimal, error) {
	if s.state != StateActive {
		return decimal.Zero, ErrNotInSession
	}
	return s.store.Credit(s.bound, amt)
}

// Debit subtracts amt from the bound account.
func (s *Session) Debit(amt decimal.Decimal) (decimal.Decimal, error) {
	if s.state != StateActive {
		return decimal.Zero, ErrNotInSession
	}
	return s.store.Debit(s.bound, amt)
}

// Balance returns the bound account's balance.
func (s *Session) Balance() (decimal.Decimal, error) {
	if s.state != StateActive {
		return decimal.Zero, ErrNotInSession
	}
	return s.store.Balance(s.bound)
}

// Finish releases the session lock and returns to Idle.
func (s *Session) Finish() error {
	if s.state != StateActive {
		return ErrNotInSession
	}
	s.store.EndSession(s.bound)
	s.state = StateIdle
	s.bound = 0
	return nil
}

// Close terminates the session, releasing any held session lock first.
// It is idempotent and safe on every exit path: explicit exit, client
// EOF, read errors, and server shutdown all funnel through here, so an
// abrupt disconnect can never leak the lock.
func (s *Session) Close() {
	if s.state == StateActive {
		s.store.EndSession(s.bound)
		s.bound = 0
	}
	s.state = StateClosed
}
