package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Store is the shared table of all accounts.  It is created once at
// startup and passed explicitly to everything that needs it; there is
// no process-wide instance.
//
// The account slice is append-only: accounts are never deleted and
// capacity is a ceiling on the total ever created.
type Store struct {
	capacity int

	mu       sync.Mutex // creation lock: guards accounts and index
	accounts []*Account
	index    map[string]int // name → position in accounts
}

// AccountInfo is one row of a store snapshot.
type AccountInfo struct {
	Name      string
	Balance   decimal.Decimal
	InSession bool
}

// NewStore returns an empty store that will hold at most capacity
// accounts.
func NewStore(capacity int) *Store {
	return &Store{
		capacity: capacity,
		accounts: make([]*Account, 0, capacity),
		index:    make(map[string]int, capacity),
	}
}

// Capacity returns the lifetime ceiling on account count.
func (s *Store) Capacity() int { return s.capacity }

// Len returns the number of accounts created so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Create opens a new account with a zero balance and returns its index.
// Names are unique for the lifetime of the store.
func (s *Store) Create(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("account name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[name]; ok {
		return 0, ErrDuplicate
	}
	if len(s.accounts) >= s.capacity {
		return 0, ErrBankFull
	}
	idx := len(s.accounts)
	s.accounts = append(s.accounts, newAccount(name))
	s.index[name] = idx
	return idx, nil
}

// Lookup resolves an account name to its index.
func (s *Store) Lookup(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[name]
	if !ok {
		return 0, ErrNotFound
	}
	return idx, nil
}

// account returns the account at idx.  Indexes come from Create or
// Lookup and accounts are never removed, so a range miss is a caller
// bug surfaced as ErrNotFound rather than a panic.
func (s *Store) account(idx int) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.accounts) {
		return nil, ErrNotFound
	}
	return s.accounts[idx], nil
}

// Credit adds amt to the account at idx and returns the new balance.
func (s *Store) Credit(idx int, amt decimal.Decimal) (decimal.Decimal, error) {
	a, err := s.account(idx)
	if err != nil {
		return decimal.Zero, err
	}
	return a.credit(amt)
}

// Debit subtracts amt from the account at idx and returns the new
// balance.  Debits that would overdraw are rejected.
func (s *Store) Debit(idx int, amt decimal.Decimal) (decimal.Decimal, error) {
	a, err := s.account(idx)
	if err != nil {
		return decimal.Zero, err
	}
	return a.debit(amt)
}

// Balance returns the current balance of the account at idx.
func (s *Store) Balance(idx int) (decimal.Decimal, error) {
	a, err := s.account(idx)
	if err != nil {
		return decimal.Zero, err
	}
	return a.balanceOf(), nil
}

// Name returns the name of the account at idx.
func (s *Store) Name(idx int) (string, error) {
	a, err := s.account(idx)
	if err != nil {
		return "", err
	}
	return a.Name(), nil
}

// StartSession blocks until the session lock of the account at idx is
// acquired, or ctx is cancelled.
func (s *Store) StartSession(ctx context.Context, idx int) error {
	a, err := s.account(idx)
	if err != nil {
		return err
	}
	return a.acquireSession(ctx)
}

// EndSession releases the session lock of the account at idx.  Must
// only be called by the worker that acquired it.
func (s *Store) EndSession(idx int) {
	a, err := s.account(idx)
	if err != nil {
		return
	}
	a.releaseSession()
}

// Snapshot copies every account's name, balance, and session status in
// creation order.  It takes the creation lock plus every update lock in
// index order, copies, and releases in reverse order, so each row was
// valid at some instant during the snapshot and the lock-holding time
// is bounded by the number of accounts.
func (s *Store) Snapshot() []AccountInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		a.mu.Lock()
	}

	out := make([]AccountInfo, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = AccountInfo{
			Name:      a.name,
			Balance:   a.balance,
			InSession: a.inSession.Load(),
		}
	}

	for i := len(s.accounts) - 1; i >= 0; i-- {
		s.accounts[i].mu.Unlock()
	}
	return out
}
