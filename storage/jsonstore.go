// Package storage is the bootstrap/persistence collaborator: it
// attaches to an existing store state or creates a fresh one, and
// saves state on orderly shutdown.
//
// State lives in a JSON snapshot file written atomically (temp file +
// rename), so a crash mid-write never corrupts the previous state.
// Sessions are connection state and are never persisted.
package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"bankd/bank"
)

// snapshotVersion guards the file format for future migrations.
const snapshotVersion = 1

// PersistAccount is one account in its serialized form.  Balances are
// stored as strings to keep exact decimal values.
type PersistAccount struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// Snapshot is the full serialized store state.
type Snapshot struct {
	Version  int              `json:"version"`
	Capacity int              `json:"capacity"`
	Accounts []PersistAccount `json:"accounts"`
}

// Attach implements attachOrCreateStore: if path names an existing
// snapshot, the returned store holds its committed accounts and
// balances; otherwise it is fresh and empty.  An empty path always
// yields a fresh in-memory store.
func Attach(path string, capacity int) (*bank.Store, error) {
	store := bank.NewStore(capacity)
	if path == "" {
		return store, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding state file %s: %w", path, err)
	}
	if snap.Version > snapshotVersion {
		return nil, fmt.Errorf("state file %s has version %d, newer than supported %d", path, snap.Version, snapshotVersion)
	}
	if len(snap.Accounts) > capacity {
		return nil, fmt.Errorf("state file holds %d accounts, exceeding capacity %d", len(snap.Accounts), capacity)
	}

	for _, pa := range snap.Accounts {
		balance, err := decimal.NewFromString(pa.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %q: bad balance %q: %w", pa.Name, pa.Balance, err)
		}
		idx, err := store.Create(pa.Name)
		if err != nil {
			return nil, fmt.Errorf("restoring account %q: %w", pa.Name, err)
		}
		if _, err := store.Credit(idx, balance); err != nil {
			return nil, fmt.Errorf("restoring balance of %q: %w", pa.Name, err)
		}
	}
	return store, nil
}

// Save writes the store's committed accounts and balances to path
// atomically.  Call on orderly shutdown; there is no write-ahead
// logging, so a crash loses changes since the last save.
func Save(path string, store *bank.Store) error {
	snap := Snapshot{
		Version:  snapshotVersion,
		Capacity: store.Capacity(),
	}
	for _, row := range store.Snapshot() {
		snap.Accounts = append(snap.Accounts, PersistAccount{
			Name:    row.Name,
			Balance: row.Balance.StringFixed(2),
		})
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	return os.Rename(tmp, path)
}
