package bank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, names ...string) *Store {
	t.Helper()
	s := NewStore(len(names) + 1)
	for _, name := range names {
		if _, err := s.Create(name); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

// ── State machine ────────────────────────────────────────────────────

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")
	sess := NewSession(store)

	if sess.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", sess.State())
	}

	if err := sess.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.State() != StateActive {
		t.Fatalf("state after start = %v, want active", sess.State())
	}
	if name, ok := sess.AccountName(); !ok || name != "alice" {
		t.Errorf("bound account = (%q, %v), want (alice, true)", name, ok)
	}

	if bal, err := sess.Credit(decimal.NewFromInt(50)); err != nil || bal.StringFixed(2) != "50.00" {
		t.Errorf("credit = (%s, %v), want (50.00, nil)", bal.StringFixed(2), err)
	}
	if bal, err := sess.Debit(decimal.NewFromInt(20)); err != nil || bal.StringFixed(2) != "30.00" {
		t.Errorf("debit = (%s, %v), want (30.00, nil)", bal.StringFixed(2), err)
	}
	if bal, err := sess.Balance(); err != nil || bal.StringFixed(2) != "30.00" {
		t.Errorf("balance = (%s, %v), want (30.00, nil)", bal.StringFixed(2), err)
	}

	if err := sess.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if sess.State() != StateIdle {
		t.Fatalf("state after finish = %v, want idle", sess.State())
	}

	sess.Close()
	if sess.State() != StateClosed {
		t.Fatalf("state after close = %v, want closed", sess.State())
	}
}

func TestSessionRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("idle rejects account operations", func(t *testing.T) {
		sess := NewSession(newTestStore(t, "alice"))
		if _, err := sess.Credit(decimal.NewFromInt(1)); !errors.Is(err, ErrNotInSession) {
			t.Errorf("credit error = %v, want ErrNotInSession", err)
		}
		if _, err := sess.Debit(decimal.NewFromInt(1)); !errors.Is(err, ErrNotInSession) {
			t.Errorf("debit error = %v, want ErrNotInSession", err)
		}
		if _, err := sess.Balance(); !errors.Is(err, ErrNotInSession) {
			t.Errorf("balance error = %v, want ErrNotInSession", err)
		}
		if err := sess.Finish(); !errors.Is(err, ErrNotInSession) {
			t.Errorf("finish error = %v, want ErrNotInSession", err)
		}
		if sess.State() != StateIdle {
			t.Errorf("rejections changed state to %v", sess.State())
		}
	})

	t.Run("active rejects open and start", func(t *testing.T) {
		store := newTestStore(t, "alice", "bob")
		sess := NewSession(store)
		if err := sess.Start(ctx, "alice"); err != nil {
			t.Fatal(err)
		}
		if err := sess.Open("carol"); !errors.Is(err, ErrAlreadyInSession) {
			t.Errorf("open error = %v, want ErrAlreadyInSession", err)
		}
		if err := sess.Start(ctx, "bob"); !errors.Is(err, ErrAlreadyInSession) {
			t.Errorf("start error = %v, want ErrAlreadyInSession", err)
		}
		if sess.State() != StateActive {
			t.Errorf("rejections changed state to %v", sess.State())
		}
	})

	t.Run("start of missing account", func(t *testing.T) {
		sess := NewSession(newTestStore(t))
		if err := sess.Start(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("start error = %v, want ErrNotFound", err)
		}
		if sess.State() != StateIdle {
			t.Errorf("failed start changed state to %v", sess.State())
		}
	})

	t.Run("closed rejects everything", func(t *testing.T) {
		sess := NewSession(newTestStore(t, "alice"))
		sess.Close()
		if err := sess.Open("bob"); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("open error = %v, want ErrSessionClosed", err)
		}
		if err := sess.Start(ctx, "alice"); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("start error = %v, want ErrSessionClosed", err)
		}
	})
}

// ── Mutual exclusion ─────────────────────────────────────────────────

// TestSessionMutualExclusion verifies that a second start on the same
// account blocks until the holder finishes, then proceeds.
func TestSessionMutualExclusion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")

	holder := NewSession(store)
	if err := holder.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	waiter := NewSession(store)
	acquired := make(chan error, 1)
	go func() {
		acquired <- waiter.Start(ctx, "alice")
	}()

	select {
	case err := <-acquired:
		t.Fatalf("second start returned (%v) while session held", err)
	case <-time.After(100 * time.Millisecond):
		// Still blocked, as it should be.
	}

	if err := holder.Finish(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("second start after release: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second start not woken by release")
	}

	if waiter.State() != StateActive {
		t.Errorf("waiter state = %v, want active", waiter.State())
	}
}

// TestSessionCloseReleasesLock models an abrupt disconnect: the holder
// never calls finish, yet the next start must succeed promptly.
func TestSessionCloseReleasesLock(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice")

	holder := NewSession(store)
	if err := holder.Start(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	holder.Close() // disconnect without finish

	next := NewSession(store)
	done := make(chan error, 1)
	go func() {
		done <- next.Start(ctx, "alice")
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start after close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session lock leaked by close")
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	store := newTestStore(t, "alice")
	sess := NewSession(store)
	if err := sess.Start(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	sess.Close()
	sess.Close() // second close must not double-release

	rows := store.Snapshot()
	if rows[0].InSession {
		t.Error("account still marked in session after close")
	}
}

// TestSessionStartCancelled verifies that shutdown unblocks a waiting
// start without corrupting the lock.
func TestSessionStartCancelled(t *testing.T) {
	store := newTestStore(t, "alice")

	holder := NewSession(store)
	if err := holder.Start(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	waiter := NewSession(store)
	done := make(chan error, 1)
	go func() {
		done <- waiter.Start(ctx, "alice")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled start error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled start did not return")
	}
	if waiter.State() != StateIdle {
		t.Errorf("waiter state = %v, want idle", waiter.State())
	}

	// The holder's lock must be intact and releasable.
	if err := holder.Finish(); err != nil {
		t.Fatal(err)
	}
}

// ── Snapshot integration ─────────────────────────────────────────────

func TestSnapshotSessionStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "alice", "bob")

	sess := NewSession(store)
	if err := sess.Start(ctx, "bob"); err != nil {
		t.Fatal(err)
	}

	rows := store.Snapshot()
	if rows[0].InSession {
		t.Error("alice reported in session")
	}
	if !rows[1].InSession {
		t.Error("bob not reported in session")
	}

	sess.Finish() //nolint:errcheck
	rows = store.Snapshot()
	if rows[1].InSession {
		t.Error("bob still reported in session after finish")
	}
}
