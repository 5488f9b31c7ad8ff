// Package token implements the compliant security-token ledger: balances,
// allowances, freeze and pause state, all keyed by resolved identity. Every
// operation runs to completion under a single service lock with
// all-or-nothing semantics: preconditions are checked against a read
// snapshot, mutations are staged in a changeset, and nothing is written
// unless every check passed.
package token

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"aurum/internal/platform/access"
	"aurum/internal/token/metrics"
	"aurum/internal/token/models"
	"aurum/internal/token/store"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
)

// Registry resolves wallets and answers verification.
type Registry interface {
	Identity(ctx context.Context, wallet domain.Address) (domain.IdentityID, error)
	IsVerified(ctx context.Context, wallet domain.Address) (bool, error)
}

// Compliance is the bound modular-compliance instance. CanTransfer gates
// ordinary transfers; the notifications fire after commits.
type Compliance interface {
	CanTransfer(ctx context.Context, from, to domain.Address, amount uint64) (bool, string)
	Transferred(ctx context.Context, from, to domain.Address, amount uint64)
	Created(ctx context.Context, to domain.Address, amount uint64)
	Destroyed(ctx context.Context, from domain.Address, amount uint64)
}

// Ledger is the transactional state store.
type Ledger interface {
	Entry(ctx context.Context, id domain.IdentityID) (models.Entry, error)
	Supply(ctx context.Context) (uint64, error)
	Paused(ctx context.Context) (bool, error)
	Balances(ctx context.Context) (map[domain.IdentityID]uint64, error)
	Apply(ctx context.Context, change store.Changeset) error
}

// Recorder is the audit sink. Fail-closed.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is one token instrument.
type Service struct {
	// mu serializes every externally invoked operation: the scheduling model
	// is single-threaded-per-operation with global serialization.
	mu sync.Mutex

	info       models.Info
	ledger     Ledger
	registry   Registry
	compliance Compliance
	acl        *access.Controller
	audit      Recorder
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics attaches ledger metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(info models.Info, owner domain.Address, ledger Ledger, registry Registry, compliance Compliance, recorder Recorder, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		info:       info,
		ledger:     ledger,
		registry:   registry,
		compliance: compliance,
		acl:        access.NewController(owner),
		audit:      recorder,
		tracer:     otel.Tracer("aurum.token"),
		logger:     logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info returns the instrument's descriptive fields.
func (s *Service) Info() models.Info { return s.info }

// ID returns the token identifier.
func (s *Service) ID() domain.TokenID { return s.info.Token }

// Access exposes the token's access controller.
func (s *Service) Access() *access.Controller { return s.acl }

func (s *Service) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(derrors.CodeOf(err))
	}
	s.metrics.IncOperation(op, outcome)
	s.metrics.ObserveOperation(op, time.Since(start))
}

func (s *Service) resolve(ctx context.Context, wallet domain.Address) (domain.IdentityID, error) {
	id, err := s.registry.Identity(ctx, wallet)
	if err != nil {
		return domain.IdentityID{}, derrors.Newf(derrors.CodeNotFound, "wallet %s has no registered identity", wallet)
	}
	return id, nil
}

// Transfer moves amount from the sender wallet to the recipient wallet. The
// sender wallet is the acting party; there is no separate actor for plain
// transfers.
func (s *Service) Transfer(ctx context.Context, from, to domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("transfer", start, err) }()

	ctx, span := s.tracer.Start(ctx, "token.Transfer")
	defer span.End()

	change, err := s.stageTransfer(ctx, from, to, amount, false)
	if err != nil {
		return err
	}
	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	s.compliance.Transferred(ctx, from, to, amount)
	return s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionTransfer,
		Token:  s.info.Token,
		Actor:  from,
		From:   from,
		To:     to,
		Amount: amount,
	})
}

// Approve sets the allowance of spender over the owner wallet's entry.
// Allowances are identity-scoped like balances.
func (s *Service) Approve(ctx context.Context, owner, spender domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("approve", start, err) }()

	ownerID, err := s.resolve(ctx, owner)
	if err != nil {
		return err
	}
	spenderID, err := s.resolve(ctx, spender)
	if err != nil {
		return err
	}

	entry, err := s.ledger.Entry(ctx, ownerID)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if entry.Allowances == nil {
		entry.Allowances = make(map[domain.IdentityID]uint64)
	}
	if amount == 0 {
		delete(entry.Allowances, spenderID)
	} else {
		entry.Allowances[spenderID] = amount
	}

	change := store.NewChangeset()
	change.Entries[ownerID] = entry
	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionApproval,
		Token:   s.info.Token,
		Actor:   owner,
		To:      spender,
		Amount:  amount,
		Subject: spenderID.String(),
	})
}

// TransferFrom moves amount from the from-wallet to the to-wallet on the
// spender's allowance. All Transfer checks apply, plus the allowance check;
// the allowance is decremented on success.
func (s *Service) TransferFrom(ctx context.Context, spender, from, to domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("transfer_from", start, err) }()

	ctx, span := s.tracer.Start(ctx, "token.TransferFrom")
	defer span.End()

	spenderID, err := s.resolve(ctx, spender)
	if err != nil {
		return err
	}
	fromID, err := s.resolve(ctx, from)
	if err != nil {
		return err
	}

	fromEntry, err := s.ledger.Entry(ctx, fromID)
	if err != nil {
		return derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	if fromEntry.Allowance(spenderID) < amount {
		return derrors.New(derrors.CodeInsufficientBalance, "allowance is insufficient")
	}

	change, err := s.stageTransfer(ctx, from, to, amount, false)
	if err != nil {
		return err
	}

	// Decrement the allowance on the staged sender entry.
	staged := change.Entries[fromID]
	if staged.Allowances == nil {
		staged.Allowances = make(map[domain.IdentityID]uint64)
	}
	remaining := fromEntry.Allowance(spenderID) - amount
	if remaining == 0 {
		delete(staged.Allowances, spenderID)
	} else {
		staged.Allowances[spenderID] = remaining
	}
	change.Entries[fromID] = staged

	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	s.compliance.Transferred(ctx, from, to, amount)
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionTransfer,
		Token:   s.info.Token,
		Actor:   spender,
		From:    from,
		To:      to,
		Amount:  amount,
		Subject: "allowance",
	})
}

// ForcedTransfer is the privileged escape hatch for enforcement actions. It
// bypasses pause, full freezes, and the compliance predicate; if the
// available balance is short but the total balance suffices, it unfreezes
// exactly the shortfall. It never bypasses recipient verification.
func (s *Service) ForcedTransfer(ctx context.Context, agent, from, to domain.Address, amount uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	defer func() { s.observe("forced_transfer", start, err) }()

	ctx, span := s.tracer.Start(ctx, "token.ForcedTransfer")
	defer span.End()

	if err := s.acl.RequireAgent(agent); err != nil {
		return err
	}
	change, err := s.stageTransfer(ctx, from, to, amount, true)
	if err != nil {
		return err
	}
	if err := s.ledger.Apply(ctx, change); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "forced transfer executed",
		"token", s.info.Token.String(),
		"agent", agent.String(),
		"from", from.String(),
		"to", to.String(),
		"amount", amount)
	s.compliance.Transferred(ctx, from, to, amount)
	return s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionForcedTransfer,
		Token:  s.info.Token,
		Actor:  agent,
		From:   from,
		To:     to,
		Amount: amount,
	})
}

// stageTransfer runs the transfer precondition chain and stages the balance
// movement. forced relaxes pause/freeze/compliance but not verification.
func (s *Service) stageTransfer(ctx context.Context, from, to domain.Address, amount uint64, forced bool) (store.Changeset, error) {
	var none store.Changeset
	if amount == 0 {
		return none, derrors.New(derrors.CodeInvalidInput, "amount must be positive")
	}

	fromID, err := s.resolve(ctx, from)
	if err != nil {
		return none, err
	}
	toID, err := s.resolve(ctx, to)
	if err != nil {
		return none, err
	}

	if !forced {
		paused, err := s.ledger.Paused(ctx)
		if err != nil {
			return none, derrors.Wrap(derrors.CodeInternal, "read pause state", err)
		}
		if paused {
			return none, derrors.New(derrors.CodePaused, "token is paused")
		}
	}

	fromEntry, err := s.ledger.Entry(ctx, fromID)
	if err != nil {
		return none, derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	toEntry := fromEntry
	if toID != fromID {
		toEntry, err = s.ledger.Entry(ctx, toID)
		if err != nil {
			return none, derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
		}
	}

	if !forced {
		if fromEntry.FullyFrozen {
			return none, derrors.New(derrors.CodeFrozen, "sender is frozen")
		}
		if toEntry.FullyFrozen {
			return none, derrors.New(derrors.CodeFrozen, "recipient is frozen")
		}
		if amount > fromEntry.Available() {
			return none, derrors.New(derrors.CodeInsufficientBalance, "amount exceeds available balance")
		}
	} else {
		if amount > fromEntry.Balance {
			return none, derrors.New(derrors.CodeInsufficientBalance, "amount exceeds balance")
		}
		if shortfall := amount - min(amount, fromEntry.Available()); shortfall > 0 {
			// Unfreeze exactly the shortfall; never below zero.
			fromEntry.Frozen -= shortfall
		}
	}

	verified, err := s.registry.IsVerified(ctx, to)
	if err != nil {
		return none, derrors.Wrap(derrors.CodeInternal, "verify recipient", err)
	}
	if !verified {
		return none, derrors.New(derrors.CodeNotVerified, "recipient is not verified")
	}

	if !forced {
		if ok, reason := s.compliance.CanTransfer(ctx, from, to, amount); !ok {
			return none, derrors.Newf(derrors.CodeComplianceRejected, "compliance rejected transfer: %s", reason)
		}
	}

	change := store.NewChangeset()
	if fromID == toID {
		// Same legal person on both sides: the movement is a no-op on the
		// shared entry (minus any forced unfreeze above).
		change.Entries[fromID] = fromEntry
		return change, nil
	}
	fromEntry.Balance -= amount
	toEntry.Balance += amount
	change.Entries[fromID] = fromEntry
	change.Entries[toID] = toEntry
	return change, nil
}

// BalanceOf returns the balance behind a wallet (the shared identity entry).
func (s *Service) BalanceOf(ctx context.Context, wallet domain.Address) (uint64, error) {
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return 0, err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return 0, derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	return entry.Balance, nil
}

// AvailableBalance returns balance minus frozen tokens for a wallet.
func (s *Service) AvailableBalance(ctx context.Context, wallet domain.Address) (uint64, error) {
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return 0, err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return 0, derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	return entry.Available(), nil
}

// FrozenTokens returns the partially frozen amount for a wallet.
func (s *Service) FrozenTokens(ctx context.Context, wallet domain.Address) (uint64, error) {
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return 0, err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return 0, derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	return entry.Frozen, nil
}

// IsFrozen reports whether a wallet's identity is fully frozen.
func (s *Service) IsFrozen(ctx context.Context, wallet domain.Address) (bool, error) {
	id, err := s.resolve(ctx, wallet)
	if err != nil {
		return false, err
	}
	entry, err := s.ledger.Entry(ctx, id)
	if err != nil {
		return false, derrors.Wrap(derrors.CodeInternal, "read ledger entry", err)
	}
	return entry.FullyFrozen, nil
}

// TotalSupply returns the current supply.
func (s *Service) TotalSupply(ctx context.Context) (uint64, error) {
	return s.ledger.Supply(ctx)
}

// Paused reports the pause state.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	return s.ledger.Paused(ctx)
}
