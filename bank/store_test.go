package bank

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// ── Create / Lookup ──────────────────────────────────────────────────

func TestStoreCreate(t *testing.T) {
	s := NewStore(2)

	idx, err := s.Create("alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if idx != 0 {
		t.Errorf("first index = %d, want 0", idx)
	}

	// Duplicate names are rejected and leave the original untouched.
	if _, err := s.Create("alice"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate create error = %v, want ErrDuplicate", err)
	}
	if got, _ := s.Balance(0); !got.IsZero() {
		t.Errorf("original balance disturbed: %s", got)
	}

	if _, err := s.Create("bob"); err != nil {
		t.Fatalf("second create: %v", err)
	}

	// Capacity is a hard ceiling.
	if _, err := s.Create("carol"); !errors.Is(err, ErrBankFull) {
		t.Errorf("create at capacity error = %v, want ErrBankFull", err)
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}

	if _, err := s.Create(""); err == nil {
		t.Error("empty name accepted")
	}
}

func TestStoreLookup(t *testing.T) {
	s := NewStore(4)
	s.Create("alice") //nolint:errcheck
	s.Create("bob")   //nolint:errcheck

	idx, err := s.Lookup("bob")
	if err != nil || idx != 1 {
		t.Errorf("lookup bob = (%d, %v), want (1, nil)", idx, err)
	}
	if _, err := s.Lookup("mallory"); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookup missing error = %v, want ErrNotFound", err)
	}
}

// ── Credit / Debit ───────────────────────────────────────────────────

func TestStoreCreditDebit(t *testing.T) {
	tests := []struct {
		name    string
		ops     []string // "c:amt" or "d:amt"
		want    string
		wantErr error
	}{
		{"credit accumulates", []string{"c:50", "c:25.50"}, "75.50", nil},
		{"debit subtracts", []string{"c:50", "d:20"}, "30.00", nil},
		{"exact drain", []string{"c:10", "d:10"}, "0.00", nil},
		{"overdraw rejected", []string{"c:10", "d:10.01"}, "10.00", ErrInsufficientFunds},
		{"negative credit rejected", []string{"c:-1"}, "0.00", ErrNegativeAmount},
		{"negative debit rejected", []string{"c:5", "d:-1"}, "5.00", ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(1)
			idx, err := s.Create("acct")
			if err != nil {
				t.Fatal(err)
			}

			var lastErr error
			for _, op := range tt.ops {
				amt := dec(t, op[2:])
				switch op[0] {
				case 'c':
					_, lastErr = s.Credit(idx, amt)
				case 'd':
					_, lastErr = s.Debit(idx, amt)
				}
			}

			if tt.wantErr != nil && !errors.Is(lastErr, tt.wantErr) {
				t.Fatalf("error = %v, want %v", lastErr, tt.wantErr)
			}
			if tt.wantErr == nil && lastErr != nil {
				t.Fatalf("unexpected error: %v", lastErr)
			}

			got, err := s.Balance(idx)
			if err != nil {
				t.Fatal(err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("balance = %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestStoreBadIndex(t *testing.T) {
	s := NewStore(1)
	if _, err := s.Balance(0); !errors.Is(err, ErrNotFound) {
		t.Errorf("balance of missing index error = %v, want ErrNotFound", err)
	}
	if _, err := s.Credit(-1, dec(t, "1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("credit of negative index error = %v, want ErrNotFound", err)
	}
}

// ── Concurrency ──────────────────────────────────────────────────────

// TestStoreNoLostUpdates hammers one account from many goroutines and
// checks that the final balance is the exact sum of applied operations.
func TestStoreNoLostUpdates(t *testing.T) {
	const (
		goroutines = 8
		perWorker  = 200
	)

	s := NewStore(1)
	idx, err := s.Create("shared")
	if err != nil {
		t.Fatal(err)
	}
	// Seed so that interleaved debits never overdraw.
	if _, err := s.Credit(idx, dec(t, "100000")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.Credit(idx, dec(t, "2.25")); err != nil {
					t.Errorf("credit: %v", err)
					return
				}
				if _, err := s.Debit(idx, dec(t, "1.25")); err != nil {
					t.Errorf("debit: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// 100000 + 8*200*(2.25-1.25)
	want := "101600.00"
	got, err := s.Balance(idx)
	if err != nil {
		t.Fatal(err)
	}
	if got.StringFixed(2) != want {
		t.Errorf("final balance = %s, want %s", got.StringFixed(2), want)
	}
}

// TestStoreConcurrentCreate checks name uniqueness and the capacity
// ceiling under concurrent account creation.
func TestStoreConcurrentCreate(t *testing.T) {
	const capacity = 10

	s := NewStore(capacity)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < capacity*2; i++ {
				s.Create(fmt.Sprintf("acct-%d", i)) //nolint:errcheck
			}
		}()
	}
	wg.Wait()

	if s.Len() != capacity {
		t.Errorf("len = %d, want %d", s.Len(), capacity)
	}

	seen := map[string]bool{}
	for _, row := range s.Snapshot() {
		if seen[row.Name] {
			t.Errorf("duplicate account %q", row.Name)
		}
		seen[row.Name] = true
	}
}

// ── Snapshot ─────────────────────────────────────────────────────────

func TestStoreSnapshot(t *testing.T) {
	s := NewStore(4)
	for i, name := range []string{"alice", "bob", "carol"} {
		idx, err := s.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Credit(idx, decimal.NewFromInt(int64(10*(i+1)))); err != nil {
			t.Fatal(err)
		}
	}

	rows := s.Snapshot()
	if len(rows) != 3 {
		t.Fatalf("snapshot rows = %d, want 3", len(rows))
	}

	// Creation order is preserved.
	wantNames := []string{"alice", "bob", "carol"}
	wantBalances := []string{"10.00", "20.00", "30.00"}
	for i, row := range rows {
		if row.Name != wantNames[i] {
			t.Errorf("row %d name = %q, want %q", i, row.Name, wantNames[i])
		}
		if row.Balance.StringFixed(2) != wantBalances[i] {
			t.Errorf("row %d balance = %s, want %s", i, row.Balance.StringFixed(2), wantBalances[i])
		}
		if row.InSession {
			t.Errorf("row %d unexpectedly in session", i)
		}
	}
}
