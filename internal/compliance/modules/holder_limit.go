package modules

import (
	"context"
	"sync"

	"aurum/pkg/domain"
)

// IdentityResolver maps wallets to identities so holder counting follows the
// ledger's identity scoping, not wallet addresses.
type IdentityResolver interface {
	Identity(ctx context.Context, wallet domain.Address) (domain.IdentityID, error)
}

// HolderLimitModule is the stateful reference module: it tracks distinct
// holders via the post-commit lifecycle notifications and rejects transfers
// that would push the holder count over the configured maximum. Balances are
// mirrored per identity; the token ledger remains authoritative, this is a
// compliance-side shadow.
//
// The mirror starts empty, so the module only sees movements from the moment
// it is bound. Bind it at token genesis, before the first mint; binding to a
// token that already has holders undercounts them.
type HolderLimitModule struct {
	mu       sync.Mutex
	max      int
	balances map[domain.IdentityID]uint64
	resolver IdentityResolver
}

func NewHolderLimit(resolver IdentityResolver, maxHolders int) *HolderLimitModule {
	return &HolderLimitModule{
		max:      maxHolders,
		balances: make(map[domain.IdentityID]uint64),
		resolver: resolver,
	}
}

func (m *HolderLimitModule) Name() string { return "holder_limit" }

func (m *HolderLimitModule) CanBind(context.Context, domain.TokenID) bool {
	return m.resolver != nil && m.max > 0
}

func (m *HolderLimitModule) Check(ctx context.Context, from, to domain.Address, amount uint64) (bool, string) {
	if amount == 0 {
		return true, ""
	}
	fromID, err := m.resolver.Identity(ctx, from)
	if err != nil {
		return false, "sender identity unknown"
	}
	toID, err := m.resolver.Identity(ctx, to)
	if err != nil {
		return false, "recipient identity unknown"
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[toID] > 0 || fromID == toID {
		// Existing holder receiving more never adds a holder.
		return true, ""
	}
	holders := len(m.balances)
	if m.balances[fromID] == amount {
		// Sender exits entirely; net holder count is unchanged.
		holders--
	}
	if holders+1 > m.max {
		return false, "transfer would exceed the holder limit"
	}
	return true, ""
}

func (m *HolderLimitModule) Transferred(ctx context.Context, from, to domain.Address, amount uint64) {
	fromID, err := m.resolver.Identity(ctx, from)
	if err != nil {
		return
	}
	toID, err := m.resolver.Identity(ctx, to)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debit(fromID, amount)
	m.credit(toID, amount)
}

func (m *HolderLimitModule) Created(ctx context.Context, to domain.Address, amount uint64) {
	toID, err := m.resolver.Identity(ctx, to)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(toID, amount)
}

func (m *HolderLimitModule) Destroyed(ctx context.Context, from domain.Address, amount uint64) {
	fromID, err := m.resolver.Identity(ctx, from)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debit(fromID, amount)
}

// HolderCount reports the tracked number of distinct holders.
func (m *HolderLimitModule) HolderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.balances)
}

func (m *HolderLimitModule) credit(id domain.IdentityID, amount uint64) {
	if amount == 0 {
		return
	}
	m.balances[id] += amount
}

func (m *HolderLimitModule) debit(id domain.IdentityID, amount uint64) {
	if amount == 0 {
		return
	}
	if m.balances[id] <= amount {
		delete(m.balances, id)
		return
	}
	m.balances[id] -= amount
}
