// Package dividend distributes a declared cash pool across token holders
// pro rata to a balance snapshot. Entitlements are computed with floor
// division; the rounding dust stays with the declarer. The cash leg itself
// settles off-ledger, so a claim here records entitlement, not payment.
package dividend

import (
	"context"
	"log/slog"
	"math/bits"
	"sync"

	tokenmodels "aurum/internal/token/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/requestcontext"
)

// Snapshotter is the slice of the token service dividends need.
type Snapshotter interface {
	Snapshot(ctx context.Context, agent domain.Address) (tokenmodels.Snapshot, error)
}

// Tokens resolves token instruments.
type Tokens interface {
	Snapshotter(id domain.TokenID) (Snapshotter, error)
}

// Registry resolves claimant wallets to identities.
type Registry interface {
	Identity(ctx context.Context, wallet domain.Address) (domain.IdentityID, error)
}

// Recorder is the audit sink.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Distribution is one declared pool keyed by its balance snapshot.
type Distribution struct {
	Snapshot tokenmodels.Snapshot
	Pool     uint64
	Claimed  map[domain.IdentityID]bool
}

// Service manages distributions in memory.
type Service struct {
	mu            sync.Mutex
	tokens        Tokens
	registry      Registry
	distributions map[domain.SnapshotID]*Distribution
	audit         Recorder
	logger        *slog.Logger
}

func NewService(tokens Tokens, registry Registry, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tokens:        tokens,
		registry:      registry,
		distributions: make(map[domain.SnapshotID]*Distribution),
		audit:         recorder,
		logger:        logger,
	}
}

// Declare snapshots the token's balances and opens a distribution of pool
// units over them. The agent must hold the agent role on the token; the
// snapshot call enforces that.
func (s *Service) Declare(ctx context.Context, agent domain.Address, token domain.TokenID, pool uint64) (domain.SnapshotID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pool == 0 {
		return domain.SnapshotID{}, derrors.New(derrors.CodeInvalidInput, "pool must be positive")
	}
	snapshotter, err := s.tokens.Snapshotter(token)
	if err != nil {
		return domain.SnapshotID{}, derrors.Newf(derrors.CodeNotFound, "token %s is not known", token)
	}
	snap, err := snapshotter.Snapshot(ctx, agent)
	if err != nil {
		return domain.SnapshotID{}, err
	}
	if snap.Supply == 0 {
		return domain.SnapshotID{}, derrors.New(derrors.CodeInvalidState, "token has no supply")
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionDividendDeclared,
		Token:   token,
		Actor:   agent,
		Amount:  pool,
		Subject: snap.ID.String(),
	}); err != nil {
		return domain.SnapshotID{}, err
	}
	s.distributions[snap.ID] = &Distribution{
		Snapshot: snap,
		Pool:     pool,
		Claimed:  make(map[domain.IdentityID]bool),
	}
	return snap.ID, nil
}

// Entitlement returns the wallet's share of a distribution without claiming
// it: floor(pool * balance / supply).
func (s *Service) Entitlement(ctx context.Context, dist domain.SnapshotID, wallet domain.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.distributions[dist]
	if !ok {
		return 0, derrors.Newf(derrors.CodeNotFound, "distribution %s not found", dist)
	}
	id, err := s.registry.Identity(ctx, wallet)
	if err != nil {
		return 0, derrors.Newf(derrors.CodeNotFound, "wallet %s has no registered identity", wallet)
	}
	return entitlement(d.Pool, d.Snapshot.BalanceAt(id), d.Snapshot.Supply), nil
}

// Claim records the wallet's identity as paid and returns the amount due.
// Each identity claims at most once per distribution, no matter how many
// wallets it controls.
func (s *Service) Claim(ctx context.Context, dist domain.SnapshotID, wallet domain.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.distributions[dist]
	if !ok {
		return 0, derrors.Newf(derrors.CodeNotFound, "distribution %s not found", dist)
	}
	id, err := s.registry.Identity(ctx, wallet)
	if err != nil {
		return 0, derrors.Newf(derrors.CodeNotFound, "wallet %s has no registered identity", wallet)
	}
	if d.Claimed[id] {
		return 0, derrors.New(derrors.CodeConflict, "distribution already claimed")
	}
	amount := entitlement(d.Pool, d.Snapshot.BalanceAt(id), d.Snapshot.Supply)
	if amount == 0 {
		return 0, derrors.New(derrors.CodeInvalidState, "no entitlement at snapshot")
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionDividendClaimed,
		Token:   d.Snapshot.Token,
		Actor:   wallet,
		Amount:  amount,
		Subject: dist.String(),
	}); err != nil {
		return 0, err
	}
	d.Claimed[id] = true
	s.logger.InfoContext(ctx, "dividend claimed",
		"distribution", dist.String(),
		"identity", id.String(),
		"amount", amount,
		"request_id", requestcontext.RequestID(ctx))
	return amount, nil
}

// entitlement computes floor(pool * balance / supply) without overflow;
// balance never exceeds supply, so the quotient fits in uint64.
func entitlement(pool, balance, supply uint64) uint64 {
	if balance == 0 || supply == 0 {
		return 0
	}
	hi, lo := bits.Mul64(pool, balance)
	q, _ := bits.Div64(hi, lo, supply)
	return q
}
