// Package models defines the ledger state of one security token. Entries are
// keyed by resolved identity, never by wallet: all wallets bound to one legal
// person share a single entry.
package models

import (
	"time"

	"aurum/pkg/domain"
)

// Info carries the instrument's descriptive fields.
type Info struct {
	Token    domain.TokenID
	Name     string
	Symbol   string
	Decimals uint8
}

// Entry is one identity's position. Invariant: Frozen ≤ Balance at all times;
// Available is never negative.
type Entry struct {
	Balance     uint64
	Frozen      uint64
	FullyFrozen bool
	Allowances  map[domain.IdentityID]uint64
}

// Available returns the transferable sub-balance. A fully frozen entry still
// reports its arithmetic availability; the ledger treats it as zero for
// ordinary transfers and bypasses it on forced transfers.
func (e Entry) Available() uint64 {
	return e.Balance - e.Frozen
}

// Allowance returns the approved amount for a spender identity.
func (e Entry) Allowance(spender domain.IdentityID) uint64 {
	if e.Allowances == nil {
		return 0
	}
	return e.Allowances[spender]
}

// Clone deep-copies the entry.
func (e Entry) Clone() Entry {
	cp := e
	if e.Allowances != nil {
		cp.Allowances = make(map[domain.IdentityID]uint64, len(e.Allowances))
		for k, v := range e.Allowances {
			cp.Allowances[k] = v
		}
	}
	return cp
}

// IsZero reports whether the entry holds no state worth keeping.
func (e Entry) IsZero() bool {
	return e.Balance == 0 && e.Frozen == 0 && !e.FullyFrozen && len(e.Allowances) == 0
}

// Snapshot records balances and supply at a point in time for proportional
// entitlement (dividend distributions).
type Snapshot struct {
	ID       domain.SnapshotID
	Token    domain.TokenID
	TakenAt  time.Time
	Supply   uint64
	Balances map[domain.IdentityID]uint64
}

// BalanceAt returns the snapshotted balance of an identity.
func (s Snapshot) BalanceAt(id domain.IdentityID) uint64 {
	return s.Balances[id]
}
