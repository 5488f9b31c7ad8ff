package httptransport

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"aurum/internal/identity"
	"aurum/internal/identity/models"
	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// IdentityService defines the identity operations the API exposes.
type IdentityService interface {
	Deploy(ctx context.Context, owner domain.Address, ownerKey ed25519.PublicKey) (*models.Identity, error)
	Identity(ctx context.Context, id domain.IdentityID) (*models.Identity, error)
	AddKey(ctx context.Context, actor domain.Address, id domain.IdentityID, holder domain.Address, purposes []domain.Purpose, keyType domain.KeyType) error
	RemoveKey(ctx context.Context, actor domain.Address, id domain.IdentityID, holder domain.Address) error
	AddClaim(ctx context.Context, actor domain.Address, id domain.IdentityID, input identity.ClaimInput) (string, error)
	RevokeClaim(ctx context.Context, actor domain.Address, id domain.IdentityID, claimID string) error
	RemoveClaim(ctx context.Context, actor domain.Address, id domain.IdentityID, claimID string) error
}

type deployIdentityRequest struct {
	Owner    string `json:"owner"`
	OwnerKey string `json:"owner_key"`
}

type identityResponse struct {
	ID     string          `json:"id"`
	Owner  string          `json:"owner"`
	Keys   []keyResponse   `json:"keys"`
	Claims []claimResponse `json:"claims"`
}

type keyResponse struct {
	ID       string   `json:"id"`
	Address  string   `json:"address"`
	Purposes []uint64 `json:"purposes"`
}

type claimResponse struct {
	ID      string `json:"id"`
	Topic   uint64 `json:"topic"`
	Issuer  string `json:"issuer"`
	URI     string `json:"uri,omitempty"`
	Revoked bool   `json:"revoked"`
}

func identityView(ident *models.Identity) identityResponse {
	resp := identityResponse{
		ID:     ident.ID.String(),
		Owner:  ident.Owner.String(),
		Keys:   make([]keyResponse, 0, len(ident.Keys)),
		Claims: make([]claimResponse, 0, len(ident.Claims)),
	}
	for _, k := range ident.Keys {
		purposes := make([]uint64, 0, len(k.Purposes))
		for _, p := range k.Purposes {
			purposes = append(purposes, uint64(p))
		}
		resp.Keys = append(resp.Keys, keyResponse{ID: k.ID, Address: k.Address.String(), Purposes: purposes})
	}
	for _, c := range ident.Claims {
		resp.Claims = append(resp.Claims, claimResponse{
			ID:      c.ID,
			Topic:   uint64(c.Topic),
			Issuer:  c.Issuer.String(),
			URI:     c.URI,
			Revoked: c.Revoked,
		})
	}
	return resp
}

func (h *Handler) handleDeployIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deployIdentityRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	key, ok := decodeEd25519Key(w, req.OwnerKey)
	if !ok {
		return
	}

	ident, err := h.identities.Deploy(ctx, owner, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "identity deployment failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, identityView(ident))
}

func (h *Handler) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ident, err := h.identities.Identity(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identityView(ident))
}

type addKeyRequest struct {
	Holder   string   `json:"holder"`
	Purposes []uint64 `json:"purposes"`
}

func (h *Handler) handleAddKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req addKeyRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	holder, err := domain.ParseAddress(req.Holder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	purposes := make([]domain.Purpose, 0, len(req.Purposes))
	for _, p := range req.Purposes {
		purposes = append(purposes, domain.Purpose(p))
	}

	if err := h.identities.AddKey(ctx, requestcontext.Actor(ctx), id, holder, purposes, domain.KeyTypeEd25519); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	holder, err := domain.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.identities.RemoveKey(ctx, requestcontext.Actor(ctx), id, holder); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addClaimRequest struct {
	Topic     uint64 `json:"topic"`
	Scheme    uint   `json:"scheme"`
	Issuer    string `json:"issuer"`
	Signature string `json:"signature"`
	SignerKey string `json:"signer_key"`
	Data      string `json:"data"`
	URI       string `json:"uri"`
	Revocable bool   `json:"revocable"`
}

func (h *Handler) handleAddClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	id, err := domain.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req addClaimRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	issuer, err := domain.ParseAddress(req.Issuer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.URI != "" && !govalidator.StringLength(req.URI, "1", "2048") {
		httputil.WriteError(w, derrors.New(derrors.CodeInvalidInput, "uri too long"))
		return
	}
	signature, ok := decodeBase64Field(w, "signature", req.Signature)
	if !ok {
		return
	}
	signerKey, ok := decodeEd25519Key(w, req.SignerKey)
	if !ok {
		return
	}
	data, ok := decodeBase64Field(w, "data", req.Data)
	if !ok {
		return
	}

	claimID, err := h.identities.AddClaim(ctx, requestcontext.Actor(ctx), id, identity.ClaimInput{
		Topic:     domain.Topic(req.Topic),
		Scheme:    req.Scheme,
		Issuer:    issuer,
		Signature: signature,
		SignerKey: signerKey,
		Data:      data,
		URI:       req.URI,
		Revocable: req.Revocable,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "claim added",
		"request_id", requestcontext.RequestID(ctx),
		"identity_id", id.String(),
		"claim_id", claimID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"claim_id": claimID})
}

func (h *Handler) handleRevokeClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.identities.RevokeClaim(ctx, requestcontext.Actor(ctx), id, chi.URLParam(r, "claimID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.identities.RemoveClaim(ctx, requestcontext.Actor(ctx), id, chi.URLParam(r, "claimID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeEd25519Key(w http.ResponseWriter, raw string) (ed25519.PublicKey, bool) {
	key, ok := decodeBase64Field(w, "key", raw)
	if !ok {
		return nil, false
	}
	if len(key) != ed25519.PublicKeySize {
		httputil.WriteError(w, derrors.New(derrors.CodeInvalidInput, "key must be a 32-byte ed25519 public key"))
		return nil, false
	}
	return ed25519.PublicKey(key), true
}

func decodeBase64Field(w http.ResponseWriter, field, raw string) ([]byte, bool) {
	if !govalidator.IsBase64(raw) {
		httputil.WriteError(w, derrors.Newf(derrors.CodeInvalidInput, "%s must be base64", field))
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		httputil.WriteError(w, derrors.Newf(derrors.CodeInvalidInput, "%s must be base64", field))
		return nil, false
	}
	return b, true
}
