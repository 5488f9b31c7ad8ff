package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	assetmodels "aurum/internal/assetnft/models"
	"aurum/internal/redemption/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// AssetService is the non-fungible asset registry.
type AssetService interface {
	Mint(ctx context.Context, owner domain.Address, metadata map[string]string) (domain.AssetID, error)
	Asset(ctx context.Context, id domain.AssetID) (assetmodels.Asset, error)
}

// RedemptionService drives the redemption workflow.
type RedemptionService interface {
	RegisterAsset(ctx context.Context, actor domain.Address, token domain.TokenID, asset domain.AssetID) error
	RequestRedemption(ctx context.Context, redeemer domain.Address, token domain.TokenID) (models.Record, error)
	LockShares(ctx context.Context, actor domain.Address, id domain.RedemptionID) error
	BurnShares(ctx context.Context, actor domain.Address, id domain.RedemptionID) error
	CompleteRedemption(ctx context.Context, actor domain.Address, id domain.RedemptionID) error
	CancelRedemption(ctx context.Context, actor domain.Address, id domain.RedemptionID) error
	Redemption(ctx context.Context, id domain.RedemptionID) (models.Record, error)
}

// DividendService declares and settles distributions.
type DividendService interface {
	Declare(ctx context.Context, agent domain.Address, token domain.TokenID, pool uint64) (domain.SnapshotID, error)
	Entitlement(ctx context.Context, dist domain.SnapshotID, wallet domain.Address) (uint64, error)
	Claim(ctx context.Context, dist domain.SnapshotID, wallet domain.Address) (uint64, error)
}

type mintAssetRequest struct {
	Metadata map[string]string `json:"metadata"`
}

func (h *Handler) handleMintAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req mintAssetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	id, err := h.assets.Mint(ctx, requestcontext.Actor(ctx), req.Metadata)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	asset, err := h.assets.Asset(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":       asset.ID.String(),
		"owner":    asset.Owner.String(),
		"metadata": asset.Metadata,
	})
}

type registerAssetRequest struct {
	Token string `json:"token"`
	Asset string `json:"asset"`
}

func (h *Handler) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerAssetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	token, err := domain.ParseTokenID(req.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	asset, err := domain.ParseAssetID(req.Asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.redemptions.RegisterAsset(ctx, requestcontext.Actor(ctx), token, asset); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type requestRedemptionRequest struct {
	Token string `json:"token"`
}

type redemptionResponse struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	Redeemer    string `json:"redeemer"`
	TotalShares uint64 `json:"total_shares"`
	Asset       string `json:"asset"`
	Issuer      string `json:"issuer"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func redemptionView(rec models.Record) redemptionResponse {
	resp := redemptionResponse{
		ID:          rec.ID.String(),
		Token:       rec.Token.String(),
		Redeemer:    rec.Redeemer.String(),
		TotalShares: rec.TotalShares,
		Asset:       rec.Asset.String(),
		Issuer:      rec.Issuer.String(),
		Status:      string(rec.Status),
		RequestedAt: rec.RequestedAt.Format(time.RFC3339),
	}
	if !rec.CompletedAt.IsZero() {
		resp.CompletedAt = rec.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) handleRequestRedemption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req requestRedemptionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	token, err := domain.ParseTokenID(req.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.redemptions.RequestRedemption(ctx, requestcontext.Actor(ctx), token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, redemptionView(rec))
}

func (h *Handler) handleGetRedemption(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRedemptionID(chi.URLParam(r, "redemptionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.redemptions.Redemption(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, redemptionView(rec))
}

func (h *Handler) handleLockShares(w http.ResponseWriter, r *http.Request) {
	h.redemptionPhase(w, r, h.redemptions.LockShares)
}

func (h *Handler) handleBurnShares(w http.ResponseWriter, r *http.Request) {
	h.redemptionPhase(w, r, h.redemptions.BurnShares)
}

func (h *Handler) handleCompleteRedemption(w http.ResponseWriter, r *http.Request) {
	h.redemptionPhase(w, r, h.redemptions.CompleteRedemption)
}

func (h *Handler) handleCancelRedemption(w http.ResponseWriter, r *http.Request) {
	h.redemptionPhase(w, r, h.redemptions.CancelRedemption)
}

func (h *Handler) redemptionPhase(w http.ResponseWriter, r *http.Request, phase func(context.Context, domain.Address, domain.RedemptionID) error) {
	ctx := r.Context()
	id, err := domain.ParseRedemptionID(chi.URLParam(r, "redemptionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := phase(ctx, requestcontext.Actor(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type declareDividendRequest struct {
	Token string `json:"token"`
	Pool  uint64 `json:"pool"`
}

func (h *Handler) handleDeclareDividend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req declareDividendRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	token, err := domain.ParseTokenID(req.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dist, err := h.dividends.Declare(ctx, requestcontext.Actor(ctx), token, req.Pool)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"distribution": dist.String()})
}

func (h *Handler) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dist, err := domain.ParseSnapshotID(chi.URLParam(r, "distributionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	wallet, err := domain.ParseAddress(r.URL.Query().Get("wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.dividends.Entitlement(ctx, dist, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"entitlement": amount})
}

func (h *Handler) handleClaimDividend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dist, err := domain.ParseSnapshotID(chi.URLParam(r, "distributionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := h.dividends.Claim(ctx, dist, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}
