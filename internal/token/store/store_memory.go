// Package store holds the transactional ledger state. Services stage a
// Changeset against a read snapshot and commit it with Apply; a failed
// precondition never reaches Apply, and Apply itself re-checks the ledger
// invariants before mutating anything.
package store

import (
	"context"
	"sync"

	"aurum/internal/token/models"
	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
)

// Changeset is the staged outcome of one operation. Only the listed entries
// are touched; Supply and Paused override the current values when set.
type Changeset struct {
	Entries map[domain.IdentityID]models.Entry
	Supply  *uint64
	Paused  *bool
}

// NewChangeset allocates an empty changeset.
func NewChangeset() Changeset {
	return Changeset{Entries: make(map[domain.IdentityID]models.Entry)}
}

// SetSupply stages a supply override.
func (c *Changeset) SetSupply(v uint64) { c.Supply = &v }

// SetPaused stages a pause-state override.
func (c *Changeset) SetPaused(v bool) { c.Paused = &v }

// InMemoryLedger is the reference ledger store. All reads return copies; the
// only mutation path is Apply, which is all-or-nothing under the store lock.
type InMemoryLedger struct {
	mu      sync.RWMutex
	entries map[domain.IdentityID]models.Entry
	supply  uint64
	paused  bool
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{entries: make(map[domain.IdentityID]models.Entry)}
}

// Entry returns the identity's position; absent identities hold the zero
// entry.
func (l *InMemoryLedger) Entry(_ context.Context, id domain.IdentityID) (models.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[id].Clone(), nil
}

// Supply returns the total supply.
func (l *InMemoryLedger) Supply(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply, nil
}

// Paused returns the pause state.
func (l *InMemoryLedger) Paused(_ context.Context) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused, nil
}

// Balances returns a copy of every nonzero balance, for snapshots.
func (l *InMemoryLedger) Balances(_ context.Context) (map[domain.IdentityID]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[domain.IdentityID]uint64, len(l.entries))
	for id, e := range l.entries {
		if e.Balance > 0 {
			out[id] = e.Balance
		}
	}
	return out, nil
}

// Apply commits a staged changeset atomically. Every staged entry is
// invariant-checked first; on any violation nothing is written.
func (l *InMemoryLedger) Apply(_ context.Context, change Changeset) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, e := range change.Entries {
		if e.Frozen > e.Balance {
			return derrors.Newf(derrors.CodeInvariant,
				"frozen %d exceeds balance %d for identity %s", e.Frozen, e.Balance, id)
		}
	}

	for id, e := range change.Entries {
		if e.IsZero() {
			delete(l.entries, id)
			continue
		}
		l.entries[id] = e.Clone()
	}
	if change.Supply != nil {
		l.supply = *change.Supply
	}
	if change.Paused != nil {
		l.paused = *change.Paused
	}
	return nil
}
