// Package redemption drives the workflow that unwinds a fully concentrated
// token position back into its underlying asset. Each phase is its own
// operation and re-validates its preconditions; transfers can legally occur
// between phases, so nothing is trusted from the prior phase.
package redemption

import (
	"context"
	"log/slog"
	"sync"

	"aurum/internal/redemption/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/requestcontext"
)

// Ledger is the slice of the token service redemption orchestrates.
type Ledger interface {
	ID() domain.TokenID
	TotalSupply(ctx context.Context) (uint64, error)
	BalanceOf(ctx context.Context, wallet domain.Address) (uint64, error)
	FrozenTokens(ctx context.Context, wallet domain.Address) (uint64, error)
	ForcedTransfer(ctx context.Context, agent, from, to domain.Address, amount uint64) error
	BurnFull(ctx context.Context, agent, from domain.Address) error
}

// Tokens resolves token instruments.
type Tokens interface {
	Token(id domain.TokenID) (Ledger, error)
}

// Registry answers verification for redeemers.
type Registry interface {
	IsVerified(ctx context.Context, wallet domain.Address) (bool, error)
}

// Assets is the non-fungible registry holding the underlying assets.
type Assets interface {
	OwnerOf(ctx context.Context, id domain.AssetID) (domain.Address, error)
	Transfer(ctx context.Context, actor domain.Address, id domain.AssetID, to domain.Address) error
}

// Store persists records, bindings and the per-token active flag.
type Store interface {
	SaveBinding(ctx context.Context, b models.Binding) error
	Binding(ctx context.Context, token domain.TokenID) (models.Binding, error)
	Save(ctx context.Context, rec models.Record) error
	Get(ctx context.Context, id domain.RedemptionID) (models.Record, error)
	SetActive(ctx context.Context, token domain.TokenID, id domain.RedemptionID) error
	ClearActive(ctx context.Context, token domain.TokenID) error
	Active(ctx context.Context, token domain.TokenID) (domain.RedemptionID, bool, error)
}

// Recorder is the audit sink.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates redemptions. The operator address must hold the agent
// role on every token it serves; forced transfers and burns run under it,
// while the workflow's own caller gates (redeemer, issuer) stay explicit.
type Service struct {
	mu       sync.Mutex
	store    Store
	tokens   Tokens
	registry Registry
	assets   Assets
	operator domain.Address
	audit    Recorder
	logger   *slog.Logger
}

func NewService(store Store, tokens Tokens, registry Registry, assets Assets, operator domain.Address, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		registry: registry,
		assets:   assets,
		operator: operator,
		audit:    recorder,
		logger:   logger,
	}
}

// RegisterAsset binds an asset to a token instrument. The caller must own
// the asset; it becomes the issuer side of every redemption on the token.
func (s *Service) RegisterAsset(ctx context.Context, actor domain.Address, token domain.TokenID, asset domain.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.tokens.Token(token); err != nil {
		return derrors.Newf(derrors.CodeNotFound, "token %s is not known", token)
	}
	owner, err := s.assets.OwnerOf(ctx, asset)
	if err != nil {
		return err
	}
	if owner != actor {
		return derrors.New(derrors.CodeUnauthorized, "only the asset owner may register it")
	}
	if err := s.store.SaveBinding(ctx, models.Binding{Token: token, Asset: asset, Issuer: actor}); err != nil {
		return derrors.New(derrors.CodeConflict, "token already has a registered asset")
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionAssetRegistered,
		Token:   token,
		Actor:   actor,
		Subject: asset.String(),
	})
}

// RequestRedemption opens a redemption for a redeemer holding the entire
// supply. At most one redemption per token may be in flight.
func (s *Service) RequestRedemption(ctx context.Context, redeemer domain.Address, token domain.TokenID) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var none models.Record

	binding, err := s.store.Binding(ctx, token)
	if err != nil {
		return none, derrors.Newf(derrors.CodeNotFound, "token %s has no registered asset", token)
	}
	ledger, err := s.tokens.Token(token)
	if err != nil {
		return none, derrors.Newf(derrors.CodeNotFound, "token %s is not known", token)
	}
	if _, active, err := s.store.Active(ctx, token); err != nil {
		return none, err
	} else if active {
		return none, derrors.New(derrors.CodeConflict, "token already has an active redemption")
	}

	supply, err := ledger.TotalSupply(ctx)
	if err != nil {
		return none, err
	}
	if supply == 0 {
		return none, derrors.New(derrors.CodeInvalidState, "token has no supply to redeem")
	}
	balance, err := ledger.BalanceOf(ctx, redeemer)
	if err != nil {
		return none, err
	}
	if balance != supply {
		return none, derrors.New(derrors.CodeInvalidState, "redeemer does not hold the full supply")
	}
	verified, err := s.registry.IsVerified(ctx, redeemer)
	if err != nil {
		return none, err
	}
	if !verified {
		return none, derrors.New(derrors.CodeNotVerified, "redeemer is not verified")
	}

	rec := models.Record{
		ID:          domain.NewRedemptionID(),
		Token:       token,
		Redeemer:    redeemer,
		TotalShares: supply,
		Asset:       binding.Asset,
		Issuer:      binding.Issuer,
		Status:      models.StatusRequested,
		RequestedAt: requestcontext.Now(ctx),
	}
	if err := s.store.SetActive(ctx, token, rec.ID); err != nil {
		return none, derrors.New(derrors.CodeConflict, "token already has an active redemption")
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return none, err
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionRedemptionRequest,
		Token:   token,
		Actor:   redeemer,
		Amount:  supply,
		Subject: rec.ID.String(),
	}); err != nil {
		return none, err
	}
	return rec, nil
}

// LockShares force-transfers the redeemer's full position to the issuer.
// Redeemer-only; re-validates that the position still equals the supply and
// that nothing is frozen, since transfers may have occurred since request.
func (s *Service) LockShares(ctx context.Context, actor domain.Address, id domain.RedemptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ledger, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor != rec.Redeemer {
		return derrors.New(derrors.CodeUnauthorized, "only the redeemer may lock shares")
	}
	if rec.Status != models.StatusRequested {
		return derrors.Newf(derrors.CodeInvalidState, "redemption is %s, expected %s", rec.Status, models.StatusRequested)
	}

	supply, err := ledger.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if supply != rec.TotalShares {
		return derrors.New(derrors.CodeInvariant, "total supply changed since request")
	}
	balance, err := ledger.BalanceOf(ctx, rec.Redeemer)
	if err != nil {
		return err
	}
	if balance != supply {
		return derrors.New(derrors.CodeInvalidState, "redeemer balance changed since request")
	}
	frozen, err := ledger.FrozenTokens(ctx, rec.Redeemer)
	if err != nil {
		return err
	}
	if frozen != 0 {
		return derrors.New(derrors.CodeFrozen, "redeemer has frozen tokens")
	}

	if err := ledger.ForcedTransfer(ctx, s.operator, rec.Redeemer, rec.Issuer, balance); err != nil {
		return err
	}
	rec.Status = models.StatusSharesLocked
	if err := s.store.Save(ctx, rec); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionSharesLocked,
		Token:   rec.Token,
		Actor:   actor,
		From:    rec.Redeemer,
		To:      rec.Issuer,
		Amount:  balance,
		Subject: rec.ID.String(),
	})
}

// BurnShares retires the locked position. Issuer-only; irreversible, so
// cancellation becomes impossible past this point.
func (s *Service) BurnShares(ctx context.Context, actor domain.Address, id domain.RedemptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ledger, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor != rec.Issuer {
		return derrors.New(derrors.CodeUnauthorized, "only the issuer may burn shares")
	}
	if rec.Status != models.StatusSharesLocked {
		return derrors.Newf(derrors.CodeInvalidState, "redemption is %s, expected %s", rec.Status, models.StatusSharesLocked)
	}

	if err := ledger.BurnFull(ctx, s.operator, rec.Issuer); err != nil {
		return err
	}
	supply, err := ledger.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if supply != 0 {
		return derrors.New(derrors.CodeInvariant, "burn left nonzero supply")
	}
	rec.Status = models.StatusSharesBurned
	if err := s.store.Save(ctx, rec); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionSharesBurned,
		Token:   rec.Token,
		Actor:   actor,
		From:    rec.Issuer,
		Amount:  rec.TotalShares,
		Subject: rec.ID.String(),
	})
}

// CompleteRedemption hands the underlying asset to the redeemer and closes
// the workflow. Issuer-only; the redeemer is re-verified first.
func (s *Service) CompleteRedemption(ctx context.Context, actor domain.Address, id domain.RedemptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor != rec.Issuer {
		return derrors.New(derrors.CodeUnauthorized, "only the issuer may complete the redemption")
	}
	if rec.Status != models.StatusSharesBurned {
		return derrors.Newf(derrors.CodeInvalidState, "redemption is %s, expected %s", rec.Status, models.StatusSharesBurned)
	}
	verified, err := s.registry.IsVerified(ctx, rec.Redeemer)
	if err != nil {
		return err
	}
	if !verified {
		return derrors.New(derrors.CodeNotVerified, "redeemer is no longer verified")
	}

	if err := s.assets.Transfer(ctx, rec.Issuer, rec.Asset, rec.Redeemer); err != nil {
		return err
	}
	rec.Status = models.StatusCompleted
	rec.CompletedAt = requestcontext.Now(ctx)
	if err := s.store.Save(ctx, rec); err != nil {
		return err
	}
	if err := s.store.ClearActive(ctx, rec.Token); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionRedemptionDone,
		Token:   rec.Token,
		Actor:   actor,
		From:    rec.Issuer,
		To:      rec.Redeemer,
		Subject: rec.ID.String(),
	})
}

// CancelRedemption aborts the workflow. Redeemer-only, and only before the
// burn; locked shares are force-transferred back.
func (s *Service) CancelRedemption(ctx context.Context, actor domain.Address, id domain.RedemptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ledger, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor != rec.Redeemer {
		return derrors.New(derrors.CodeUnauthorized, "only the redeemer may cancel")
	}
	if rec.Status != models.StatusRequested && rec.Status != models.StatusSharesLocked {
		return derrors.Newf(derrors.CodeInvalidState, "redemption is %s and can no longer be cancelled", rec.Status)
	}

	if rec.Status == models.StatusSharesLocked {
		if err := ledger.ForcedTransfer(ctx, s.operator, rec.Issuer, rec.Redeemer, rec.TotalShares); err != nil {
			return err
		}
	}
	rec.Status = models.StatusCancelled
	rec.CompletedAt = requestcontext.Now(ctx)
	if err := s.store.Save(ctx, rec); err != nil {
		return err
	}
	if err := s.store.ClearActive(ctx, rec.Token); err != nil {
		return err
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionRedemptionCancel,
		Token:   rec.Token,
		Actor:   actor,
		Subject: rec.ID.String(),
	})
}

// Redemption returns a record by ID.
func (s *Service) Redemption(ctx context.Context, id domain.RedemptionID) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Record{}, derrors.Newf(derrors.CodeNotFound, "redemption %s not found", id)
	}
	return rec, nil
}

func (s *Service) load(ctx context.Context, id domain.RedemptionID) (models.Record, Ledger, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Record{}, nil, derrors.Newf(derrors.CodeNotFound, "redemption %s not found", id)
	}
	ledger, err := s.tokens.Token(rec.Token)
	if err != nil {
		return models.Record{}, nil, derrors.Newf(derrors.CodeNotFound, "token %s is not known", rec.Token)
	}
	return rec, ledger, nil
}
