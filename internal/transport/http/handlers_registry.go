package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aurum/internal/trust"
	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

// TopicsService manages the required-topics registry.
type TopicsService interface {
	AddTopic(ctx context.Context, actor domain.Address, topic domain.Topic) error
	RemoveTopic(ctx context.Context, actor domain.Address, topic domain.Topic) error
	RequiredTopics(ctx context.Context) []domain.Topic
}

// IssuersService manages the trusted-issuer registry.
type IssuersService interface {
	AddIssuer(ctx context.Context, actor, issuer domain.Address, topics []domain.Topic) error
	UpdateIssuerTopics(ctx context.Context, actor, issuer domain.Address, topics []domain.Topic) error
	RemoveIssuer(ctx context.Context, actor, issuer domain.Address) error
	Issuers(ctx context.Context) []trust.IssuerEntry
}

// RegistryService manages wallet-to-identity bindings and verification.
type RegistryService interface {
	RegisterIdentity(ctx context.Context, actor, wallet domain.Address, identityID domain.IdentityID, country domain.CountryCode) error
	DeleteIdentity(ctx context.Context, actor, wallet domain.Address) error
	UpdateCountry(ctx context.Context, actor, wallet domain.Address, country domain.CountryCode) error
	UpdateIdentity(ctx context.Context, actor, wallet domain.Address, identityID domain.IdentityID) error
	Identity(ctx context.Context, wallet domain.Address) (domain.IdentityID, error)
	InvestorCountry(ctx context.Context, wallet domain.Address) (domain.CountryCode, error)
	IsVerified(ctx context.Context, wallet domain.Address) (bool, error)
}

type topicRequest struct {
	Topic uint64 `json:"topic"`
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.topics.RequiredTopics(r.Context())
	out := make([]uint64, 0, len(topics))
	for _, t := range topics {
		out = append(out, uint64(t))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]uint64{"topics": out})
}

func (h *Handler) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req topicRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := h.topics.AddTopic(ctx, requestcontext.Actor(ctx), domain.Topic(req.Topic)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := strconv.ParseUint(chi.URLParam(r, "topic"), 10, 64)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeInvalidInput, "topic must be numeric"))
		return
	}
	if err := h.topics.RemoveTopic(ctx, requestcontext.Actor(ctx), domain.Topic(raw)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type issuerRequest struct {
	Issuer string   `json:"issuer"`
	Topics []uint64 `json:"topics"`
}

type issuerResponse struct {
	Issuer string   `json:"issuer"`
	Topics []uint64 `json:"topics"`
}

func (h *Handler) handleListIssuers(w http.ResponseWriter, r *http.Request) {
	entries := h.issuers.Issuers(r.Context())
	out := make([]issuerResponse, 0, len(entries))
	for _, e := range entries {
		topics := make([]uint64, 0, len(e.Topics))
		for _, t := range e.Topics {
			topics = append(topics, uint64(t))
		}
		out = append(out, issuerResponse{Issuer: e.Issuer.String(), Topics: topics})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]issuerResponse{"issuers": out})
}

func (h *Handler) handleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req issuerRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	issuer, topics, err := parseIssuerRequest(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.issuers.AddIssuer(ctx, requestcontext.Actor(ctx), issuer, topics); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, err := domain.ParseAddress(chi.URLParam(r, "issuer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req issuerRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	topics := make([]domain.Topic, 0, len(req.Topics))
	for _, t := range req.Topics {
		topics = append(topics, domain.Topic(t))
	}
	if err := h.issuers.UpdateIssuerTopics(ctx, requestcontext.Actor(ctx), issuer, topics); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, err := domain.ParseAddress(chi.URLParam(r, "issuer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.issuers.RemoveIssuer(ctx, requestcontext.Actor(ctx), issuer); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIssuerRequest(req issuerRequest) (domain.Address, []domain.Topic, error) {
	issuer, err := domain.ParseAddress(req.Issuer)
	if err != nil {
		return domain.Address{}, nil, err
	}
	topics := make([]domain.Topic, 0, len(req.Topics))
	for _, t := range req.Topics {
		topics = append(topics, domain.Topic(t))
	}
	return issuer, topics, nil
}

type registerWalletRequest struct {
	Wallet   string `json:"wallet"`
	Identity string `json:"identity"`
	Country  uint64 `json:"country"`
}

func (h *Handler) handleRegisterWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerWalletRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	wallet, err := domain.ParseAddress(req.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	identityID, err := domain.ParseIdentityID(req.Identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	country, err := domain.ParseCountryCode(req.Country)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.RegisterIdentity(ctx, requestcontext.Actor(ctx), wallet, identityID, country); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := domain.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.DeleteIdentity(ctx, requestcontext.Actor(ctx), wallet); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateCountryRequest struct {
	Country uint64 `json:"country"`
}

func (h *Handler) handleUpdateCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := domain.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateCountryRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	country, err := domain.ParseCountryCode(req.Country)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.UpdateCountry(ctx, requestcontext.Actor(ctx), wallet, country); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateIdentityRequest struct {
	Identity string `json:"identity"`
}

func (h *Handler) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := domain.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateIdentityRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	identityID, err := domain.ParseIdentityID(req.Identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.UpdateIdentity(ctx, requestcontext.Actor(ctx), wallet, identityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := domain.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	identityID, err := h.registry.Identity(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	country, err := h.registry.InvestorCountry(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"wallet":   wallet.String(),
		"identity": identityID.String(),
		"country":  uint64(country),
	})
}

func (h *Handler) handleIsVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, err := domain.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	verified, err := h.registry.IsVerified(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}
