// Package assetnft is the minimal non-fungible registry for the underlying
// assets of redemptions: one owner per asset, explicit transfers, nothing
// else. It deliberately carries no compliance hooks; the fungible ledger is
// where regulation lives.
package assetnft

import (
	"context"
	"sync"

	"aurum/internal/assetnft/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/requestcontext"
)

// Recorder is the audit sink.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Registry tracks asset ownership.
type Registry struct {
	mu     sync.Mutex
	assets map[domain.AssetID]models.Asset
	audit  Recorder
}

func NewRegistry(recorder Recorder) *Registry {
	return &Registry{
		assets: make(map[domain.AssetID]models.Asset),
		audit:  recorder,
	}
}

// Mint registers a new asset under owner and returns its ID.
func (r *Registry) Mint(ctx context.Context, owner domain.Address, metadata map[string]string) (domain.AssetID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner.IsZero() {
		return domain.AssetID{}, derrors.New(derrors.CodeInvalidInput, "owner is required")
	}
	asset := models.Asset{
		ID:       domain.NewAssetID(),
		Owner:    owner,
		Metadata: metadata,
		MintedAt: requestcontext.Now(ctx),
	}
	if err := r.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionAssetRegistered,
		Actor:   owner,
		Subject: asset.ID.String(),
	}); err != nil {
		return domain.AssetID{}, err
	}
	r.assets[asset.ID] = asset.Clone()
	return asset.ID, nil
}

// OwnerOf returns the current owner of the asset.
func (r *Registry) OwnerOf(_ context.Context, id domain.AssetID) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[id]
	if !ok {
		return domain.Address{}, derrors.Newf(derrors.CodeNotFound, "asset %s is not registered", id)
	}
	return asset.Owner, nil
}

// Asset returns the full record.
func (r *Registry) Asset(_ context.Context, id domain.AssetID) (models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[id]
	if !ok {
		return models.Asset{}, derrors.Newf(derrors.CodeNotFound, "asset %s is not registered", id)
	}
	return asset.Clone(), nil
}

// Transfer moves the asset from its current owner to another address. Only
// the current owner may transfer.
func (r *Registry) Transfer(ctx context.Context, actor domain.Address, id domain.AssetID, to domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[id]
	if !ok {
		return derrors.Newf(derrors.CodeNotFound, "asset %s is not registered", id)
	}
	if asset.Owner != actor {
		return derrors.New(derrors.CodeUnauthorized, "only the asset owner may transfer it")
	}
	if to.IsZero() {
		return derrors.New(derrors.CodeInvalidInput, "recipient is required")
	}
	if err := r.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionAssetTransferred,
		Actor:   actor,
		From:    asset.Owner,
		To:      to,
		Subject: id.String(),
	}); err != nil {
		return err
	}
	asset.Owner = to
	r.assets[id] = asset
	return nil
}
