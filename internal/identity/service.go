// Package identity manages Identity aggregates: deployment, key
// administration, and claim lifecycle. Verification against these claims
// lives in the identity registry; this package owns the records themselves.
package identity

import (
	"context"
	"crypto/ed25519"
	"errors"
	"log/slog"

	"aurum/internal/identity/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/requestcontext"
)

// Store persists identity aggregates.
type Store interface {
	Save(ctx context.Context, identity *models.Identity) error
	Get(ctx context.Context, id domain.IdentityID) (*models.Identity, error)
	GetByOwner(ctx context.Context, owner domain.Address) (*models.Identity, error)
}

// Recorder is the audit sink. Fail-closed: a failed emit aborts the mutation.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service coordinates identity mutations. All writes are read-modify-write on
// a cloned aggregate, saved only after every check passes.
type Service struct {
	store  Store
	audit  Recorder
	logger *slog.Logger
}

func NewService(store Store, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, audit: recorder, logger: logger}
}

// Deploy creates an identity owned by owner. The deployer gets a MANAGEMENT
// key; every identity keeps at least one for its lifetime.
func (s *Service) Deploy(ctx context.Context, owner domain.Address, ownerKey ed25519.PublicKey) (*models.Identity, error) {
	if owner.IsZero() {
		return nil, derrors.New(derrors.CodeInvalidInput, "owner address must not be zero")
	}
	if len(ownerKey) != ed25519.PublicKeySize {
		return nil, derrors.New(derrors.CodeInvalidInput, "owner key must be a valid ed25519 public key")
	}
	if _, err := s.store.GetByOwner(ctx, owner); err == nil {
		return nil, derrors.New(derrors.CodeConflict, "owner already controls an identity")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, derrors.Wrap(derrors.CodeInternal, "lookup owner", err)
	}

	identity := &models.Identity{
		ID:       domain.NewIdentityID(),
		Owner:    owner,
		OwnerKey: append(ed25519.PublicKey(nil), ownerKey...),
		Keys: []models.Key{{
			ID:       KeyID(owner),
			Address:  owner,
			Purposes: []domain.Purpose{domain.PurposeManagement},
			Type:     domain.KeyTypeEd25519,
		}},
		DeployedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, identity); err != nil {
		return nil, derrors.Wrap(derrors.CodeInternal, "save identity", err)
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionIdentityDeployed,
		Actor:   owner,
		Subject: identity.ID.String(),
	}); err != nil {
		return nil, err
	}
	return identity, nil
}

// Identity loads an aggregate.
func (s *Service) Identity(ctx context.Context, id domain.IdentityID) (*models.Identity, error) {
	identity, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "identity not found")
		}
		return nil, derrors.Wrap(derrors.CodeInternal, "load identity", err)
	}
	return identity, nil
}

// IdentityByOwner loads the aggregate controlled by owner.
func (s *Service) IdentityByOwner(ctx context.Context, owner domain.Address) (*models.Identity, error) {
	identity, err := s.store.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "identity not found")
		}
		return nil, derrors.Wrap(derrors.CodeInternal, "load identity", err)
	}
	return identity, nil
}

// AddKey attaches a key to the identity. Requires MANAGEMENT capability.
func (s *Service) AddKey(ctx context.Context, actor domain.Address, id domain.IdentityID, holder domain.Address, purposes []domain.Purpose, keyType domain.KeyType) error {
	if len(purposes) == 0 {
		return derrors.New(derrors.CodeInvalidInput, "key must carry at least one purpose")
	}
	identity, err := s.Identity(ctx, id)
	if err != nil {
		return err
	}
	if !identity.HolderHasPurpose(actor, domain.PurposeManagement) {
		return derrors.New(derrors.CodeUnauthorized, "actor lacks a management key")
	}
	if _, exists := identity.KeyByAddress(holder); exists {
		return derrors.New(derrors.CodeConflict, "holder already has a key on this identity")
	}

	identity.Keys = append(identity.Keys, models.Key{
		ID:       KeyID(holder),
		Address:  holder,
		Purposes: append([]domain.Purpose(nil), purposes...),
		Type:     keyType,
	})
	if err := s.store.Save(ctx, identity); err != nil {
		return derrors.Wrap(derrors.CodeInternal, "save identity", err)
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionKeyAdded,
		Actor:   actor,
		Subject: KeyID(holder),
	})
}

// RemoveKey detaches a key. Removing the last MANAGEMENT key fails: an
// identity must always remain administrable.
func (s *Service) RemoveKey(ctx context.Context, actor domain.Address, id domain.IdentityID, holder domain.Address) error {
	identity, err := s.Identity(ctx, id)
	if err != nil {
		return err
	}
	if !identity.HolderHasPurpose(actor, domain.PurposeManagement) {
		return derrors.New(derrors.CodeUnauthorized, "actor lacks a management key")
	}
	key, exists := identity.KeyByAddress(holder)
	if !exists {
		return derrors.New(derrors.CodeNotFound, "key not found")
	}
	if key.HasPurpose(domain.PurposeManagement) && identity.ManagementKeyCount() == 1 {
		return derrors.New(derrors.CodeInvalidState, "cannot remove the last management key")
	}

	keys := identity.Keys[:0]
	for _, k := range identity.Keys {
		if k.Address != holder {
			keys = append(keys, k)
		}
	}
	identity.Keys = keys
	if err := s.store.Save(ctx, identity); err != nil {
		return derrors.Wrap(derrors.CodeInternal, "save identity", err)
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionKeyRemoved,
		Actor:   actor,
		Subject: key.ID,
	})
}

// ClaimInput carries the fields of a claim to attach.
type ClaimInput struct {
	Topic     domain.Topic
	Scheme    uint
	Issuer    domain.Address
	Signature []byte
	SignerKey ed25519.PublicKey
	Data      []byte
	URI       string
	Revocable bool
}

// AddClaim attaches a claim, replacing any existing claim from the same
// (issuer, topic) pair. Requires CLAIM capability on the target identity.
// The signature must verify under SignerKey; whether SignerKey belongs to the
// issuer is checked at verification time against the issuer's owner.
func (s *Service) AddClaim(ctx context.Context, actor domain.Address, id domain.IdentityID, input ClaimInput) (string, error) {
	if input.Issuer.IsZero() {
		return "", derrors.New(derrors.CodeInvalidInput, "claim issuer must not be zero")
	}
	identity, err := s.Identity(ctx, id)
	if err != nil {
		return "", err
	}
	if !identity.HolderHasPurpose(actor, domain.PurposeClaim) {
		return "", derrors.New(derrors.CodeUnauthorized, "actor lacks a claim key")
	}

	claimID := ClaimID(input.Issuer, input.Topic)
	if !VerifyClaimSignature(input.SignerKey, claimID, input.Topic, input.Data, input.Signature) {
		return "", derrors.New(derrors.CodeInvalidInput, "claim signature does not verify")
	}

	claim := models.Claim{
		ID:        claimID,
		Topic:     input.Topic,
		Scheme:    input.Scheme,
		Issuer:    input.Issuer,
		Signature: append([]byte(nil), input.Signature...),
		SignerKey: append(ed25519.PublicKey(nil), input.SignerKey...),
		Data:      append([]byte(nil), input.Data...),
		URI:       input.URI,
		Revocable: input.Revocable,
		AddedAt:   requestcontext.Now(ctx),
	}

	replaced := false
	for idx, c := range identity.Claims {
		if c.ID == claimID {
			identity.Claims[idx] = claim
			replaced = true
			break
		}
	}
	if !replaced {
		identity.Claims = append(identity.Claims, claim)
	}

	if err := s.store.Save(ctx, identity); err != nil {
		return "", derrors.Wrap(derrors.CodeInternal, "save identity", err)
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionClaimAdded,
		Actor:   actor,
		Subject: claimID,
	}); err != nil {
		return "", err
	}
	return claimID, nil
}

// RevokeClaim soft-deletes a claim. Only revocable claims can be revoked.
func (s *Service) RevokeClaim(ctx context.Context, actor domain.Address, id domain.IdentityID, claimID string) error {
	identity, err := s.Identity(ctx, id)
	if err != nil {
		return err
	}
	if !identity.HolderHasPurpose(actor, domain.PurposeClaim) {
		return derrors.New(derrors.CodeUnauthorized, "actor lacks a claim key")
	}
	for idx, c := range identity.Claims {
		if c.ID != claimID {
			continue
		}
		if !c.Revocable {
			return derrors.New(derrors.CodeInvalidState, "claim is not revocable")
		}
		if c.Revoked {
			return derrors.New(derrors.CodeInvalidState, "claim is already revoked")
		}
		identity.Claims[idx].Revoked = true
		if err := s.store.Save(ctx, identity); err != nil {
			return derrors.Wrap(derrors.CodeInternal, "save identity", err)
		}
		return s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionClaimRevoked,
			Actor:   actor,
			Subject: claimID,
		})
	}
	return derrors.New(derrors.CodeNotFound, "claim not found")
}

// RemoveClaim physically deletes a claim.
func (s *Service) RemoveClaim(ctx context.Context, actor domain.Address, id domain.IdentityID, claimID string) error {
	identity, err := s.Identity(ctx, id)
	if err != nil {
		return err
	}
	if !identity.HolderHasPurpose(actor, domain.PurposeClaim) {
		return derrors.New(derrors.CodeUnauthorized, "actor lacks a claim key")
	}
	claims := identity.Claims[:0]
	found := false
	for _, c := range identity.Claims {
		if c.ID == claimID {
			found = true
			continue
		}
		claims = append(claims, c)
	}
	if !found {
		return derrors.New(derrors.CodeNotFound, "claim not found")
	}
	identity.Claims = claims
	if err := s.store.Save(ctx, identity); err != nil {
		return derrors.Wrap(derrors.CodeInternal, "save identity", err)
	}
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionClaimRemoved,
		Actor:   actor,
		Subject: claimID,
	})
}
