// Package bank implements the concurrent account store and the
// per-connection session state machine.
//
// Locking discipline: every account carries two independent locks.  The
// update lock (a mutex) guards read-modify-write of the balance for the
// duration of one operation.  The session lock (a one-slot channel
// semaphore) is held across a whole start…finish command sequence and
// grants its holder exclusive use of the account.  The store's creation
// lock guards appends only and is never held during balance operations.
package bank

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Account is a named balance record.  The name is immutable after
// creation; the balance is only touched under mu.
type Account struct {
	name string

	mu      sync.Mutex // update lock
	balance decimal.Decimal

	// session is a binary semaphore: a buffered send acquires the
	// session lock, a receive releases it.  A blocked sender wakes
	// exactly when the holder releases — no polling, no fairness
	// ordering, no timeout.
	session   chan struct{}
	inSession atomic.Bool // mirror of session occupancy, for snapshots
}

func newAccount(name string) *Account {
	return &Account{
		name:    name,
		balance: decimal.Zero,
		session: make(chan struct{}, 1),
	}
}

// Name returns the immutable account name.
func (a *Account) Name() string { return a.name }

// InSession reports whether some worker currently holds the session lock.
func (a *Account) InSession() bool { return a.inSession.Load() }

// acquireSession blocks until the session lock is free or ctx is
// cancelled.  Cancellation only happens on process shutdown; there is
// deliberately no timeout.
func (a *Account) acquireSession(ctx context.Context) error {
	select {
	case a.session <- struct{}{}:
		a.inSession.Store(true)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// releaseSession frees the session lock, waking one blocked acquirer
// if any.  Must only be called by the current holder.
func (a *Account) releaseSession() {
	a.inSession.Store(false)
	<-a.session
}

// credit adds amt under the update lock and returns the new balance.
func (a *Account) credit(amt decimal.Decimal) (decimal.Decimal, error) {
	if amt.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amt)
	return a.balance, nil
}

// debit subtracts amt under the update lock and returns the new
// balance.  The balance never goes negative.
func (a *Account) debit(amt decimal.Decimal) (decimal.Decimal, error) {
	if amt.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amt.GreaterThan(a.balance) {
		return decimal.Zero, ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amt)
	return a.balance, nil
}

// balanceOf reads the balance under the update lock.
func (a *Account) balanceOf() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}
