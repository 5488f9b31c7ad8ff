package token

import (
	"context"
	"math"
	"time"

	"aurum/internal/token/models"
	"aurum/internal/token/store"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/requestcontext"
)

// Mint creates amount units on the recipient wallet's entry. Requires an
// agent, an unpaused token, and a verified recipient.
func (s *Service) Mint(ctx context.Context, agent, to domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("mint", start, err) }()

	ctx, span := s.tracer.Start(ctx, "token.Mint")
	defer span.End()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	if amount == 0 {
		return derrors.New(derrors.CodeInvalidInput, "amount must be positive")
	}
	paused, err := s.ledger.Paused(ctx)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read pause state", err)
	}
	if paused {
		return derrors.New(derrors.CodePaused, "token is paused")
	}
	toID, err := s.resolve(ctx, to)
	if err != nil {
		return err
	}
	verified, err := s.registry.IsVerified(ctx, to)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "verify recipient", err)
	}
	if !verified {
		return derrors.New(derrors.CodeNotVerified, "recipient is not verified")
	}

	entry, err := s.ledger.Entry(ctx, toID)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	supply, err := s.ledger.Supply(ctx)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read supply", err)
	}
	if amount > math.MaxUint64-supply {
		return derrors.New(derrors.CodeCapExceeded, "mint would overflow total supply")
	}
	entry.Balance += amount

	change := store.NewChangeset()
	change.Entries[toID] = entry
	change.SetSupply(supply + amount)

	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	s.compliance.Created(ctx, to, amount)
	return s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionMint,
		Token:  s.info.Token,
		Actor:  agent,
		To:     to,
		Amount: amount,
	})
}

// Burn destroys amount units from the wallet's available balance. Requires
// an agent and operates regardless of pause state.
func (s *Service) Burn(ctx context.Context, agent, from domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("burn", start, err) }()

	ctx, span := s.tracer.Start(ctx, "token.Burn")
	defer span.End()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	return s.burnLocked(ctx, agent, from, amount, false)
}

// BurnFull destroys the wallet's entire balance, frozen portion included.
// It exists for redemption settlement, where locked shares are retired in
// one step. Requires an agent.
func (s *Service) BurnFull(ctx context.Context, agent, from domain.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("burn_full", start, err) }()

	ctx, span := s.tracer.Start(ctx, "token.BurnFull")
	defer span.End()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	fromID, err := s.resolve(ctx, from)
	if err != nil {
		return err
	}
	entry, err := s.ledger.Entry(ctx, fromID)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if entry.Balance == 0 {
		return derrors.New(derrors.CodeInsufficientBalance, "nothing to burn")
	}
	return s.burnLocked(ctx, agent, from, entry.Balance, true)
}

// burnLocked stages and commits a burn. full permits consuming the frozen
// portion; the frozen counter is reduced so it never exceeds the balance.
func (s *Service) burnLocked(ctx context.Context, agent, from domain.Address, amount uint64, full bool) error {
	if amount == 0 {
		return derrors.New(derrors.CodeInvalidInput, "amount must be positive")
	}
	fromID, err := s.resolve(ctx, from)
	if err != nil {
		return err
	}
	entry, err := s.ledger.Entry(ctx, fromID)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if full {
		if amount > entry.Balance {
			return derrors.New(derrors.CodeInsufficientBalance, "amount exceeds balance")
		}
	} else if amount > entry.Available() {
		return derrors.New(derrors.CodeInsufficientBalance, "amount exceeds available balance")
	}
	supply, err := s.ledger.Supply(ctx)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read supply", err)
	}

	entry.Balance -= amount
	if entry.Frozen > entry.Balance {
		entry.Frozen = entry.Balance
	}

	change := store.NewChangeset()
	change.Entries[fromID] = entry
	change.SetSupply(supply - amount)

	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	s.compliance.Destroyed(ctx, from, amount)
	return s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionBurn,
		Token:  s.info.Token,
		Actor:  agent,
		From:   from,
		Amount: amount,
	})
}

// SetAddressFrozen sets or clears the full freeze on a wallet's identity.
// Setting the current state again is rejected so the audit trail stays
// meaningful.
func (s *Service) SetAddressFrozen(ctx context.Context, agent, wallet domain.Address, frozen bool) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("set_address_frozen", start, err) }()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if entry.FullyFrozen == frozen {
		return derrors.New(derrors.CodeConflict, "freeze state already set")
	}
	entry.FullyFrozen = frozen

	change := store.NewChangeset()
	change.Entries[id] = entry

	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	action := audit.ActionAddressFrozen
	if !frozen {
		action = audit.ActionAddressUnfrozen
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  action,
		Token:   s.info.Token,
		Actor:   agent,
		Subject: wallet.String(),
	})
}

// FreezePartialTokens locks amount units of the wallet's balance. The frozen
// total never exceeds the balance.
func (s *Service) FreezePartialTokens(ctx context.Context, agent, wallet domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("freeze_partial", start, err) }()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	if amount == 0 {
		return derrors.New(derrors.CodeInvalidInput, "amount must be positive")
	}
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if entry.Frozen+amount > entry.Balance {
		return derrors.New(derrors.CodeInsufficientBalance, "freeze exceeds balance")
	}
	entry.Frozen += amount

	change := store.NewChangeset()
	change.Entries[id] = entry
	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionTokensFrozen,
		Token:   s.info.Token,
		Actor:   agent,
		Subject: wallet.String(),
		Amount:  amount,
	})
}

// UnfreezePartialTokens releases amount units of the wallet's frozen balance.
func (s *Service) UnfreezePartialTokens(ctx context.Context, agent, wallet domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("unfreeze_partial", start, err) }()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	if amount == 0 {
		return derrors.New(derrors.CodeInvalidInput, "amount must be positive")
	}
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if amount > entry.Frozen {
		return derrors.New(derrors.CodeInsufficientBalance, "unfreeze exceeds frozen amount")
	}
	entry.Frozen -= amount

	change := store.NewChangeset()
	change.Entries[id] = entry
	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionTokensUnfrozen,
		Token:   s.info.Token,
		Actor:   agent,
		Subject: wallet.String(),
		Amount:  amount,
	})
}

// Pause halts ordinary transfers and minting. Agent-gated; pausing an
// already paused token is rejected.
func (s *Service) Pause(ctx context.Context, agent domain.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("pause", start, err) }()
	return s.setPaused(ctx, agent, true)
}

// Unpause resumes ordinary transfers and minting.
func (s *Service) Unpause(ctx context.Context, agent domain.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("unpause", start, err) }()
	return s.setPaused(ctx, agent, false)
}

func (s *Service) setPaused(ctx context.Context, agent domain.Address, paused bool) error {
	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	current, err := s.ledger.Paused(ctx)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read pause state", err)
	}
	if current == paused {
		return derrors.New(derrors.CodeConflict, "pause state already set")
	}
	change := store.NewChangeset()
	change.SetPaused(paused)
	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	action := audit.ActionPaused
	if !paused {
		action = audit.ActionUnpaused
	}
	return s.audit.Emit(ctx, audit.Event{
		Action: action,
		Token:  s.info.Token,
		Actor:  agent,
	})
}

// Snapshot captures supply and every nonzero identity balance at a point in
// time. The result is immutable; dividend distributions key off it.
func (s *Service) Snapshot(ctx context.Context, agent domain.Address) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	var err error
	defer func() { s.observe("snapshot", start, err) }()

	if err = s.acl.RequireAgent(agent); err != nil {
		return models.Snapshot{}, err
	}
	supply, err := s.ledger.Supply(ctx)
	if err != nil {
		return models.Snapshot{}, derrors.Wrap(derrors.CodeInternal, "read supply", err)
	}
	balances, err := s.ledger.Balances(ctx)
	if err != nil {
		return models.Snapshot{}, derrors.Wrap(derrors.CodeInternal, "read balances", err)
	}
	snap := models.Snapshot{
		ID:       domain.NewSnapshotID(),
		Token:    s.info.Token,
		TakenAt:  requestcontext.Now(ctx),
		Supply:   supply,
		Balances: balances,
	}
	if err = s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionSnapshotTaken,
		Token:   s.info.Token,
		Actor:   agent,
		Subject: snap.ID.String(),
		Amount:  supply,
	}); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// AddAgent grants the agent role on this token. Owner-gated, audited.
func (s *Service) AddAgent(ctx context.Context, owner, agent domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.acl.AddAgent(owner, agent); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionAgentAdded,
		Token:   s.info.Token,
		Actor:   owner,
		Subject: agent.String(),
	})
}

// RemoveAgent revokes the agent role on this token.
func (s *Service) RemoveAgent(ctx context.Context, owner, agent domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.acl.RemoveAgent(owner, agent); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionAgentRemoved,
		Token:   s.info.Token,
		Actor:   owner,
		Subject: agent.String(),
	})
}
