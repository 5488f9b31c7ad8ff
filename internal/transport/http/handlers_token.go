package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aurum/internal/compliance"
	"aurum/internal/compliance/modules"
	"aurum/internal/instruments"
	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/platform/httputil"
	"aurum/pkg/requestcontext"
)

func (h *Handler) instrument(w http.ResponseWriter, r *http.Request) (instruments.Instrument, bool) {
	id, err := domain.ParseTokenID(chi.URLParam(r, "tokenID"))
	if err != nil {
		httputil.WriteError(w, err)
		return instruments.Instrument{}, false
	}
	inst, err := h.instruments.Get(id)
	if err != nil {
		httputil.WriteError(w, err)
		return instruments.Instrument{}, false
	}
	return inst, true
}

type createTokenRequest struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func (h *Handler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTokenRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Symbol == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeInvalidInput, "name and symbol are required"))
		return
	}
	inst, err := h.newInstrument(req.Name, req.Symbol, req.Decimals, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": inst.Token.ID().String()})
}

type agentRequest struct {
	Agent string `json:"agent"`
}

func (h *Handler) handleAddAgent(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req agentRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	agent, err := domain.ParseAddress(req.Agent)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.AddAgent(ctx, requestcontext.Actor(ctx), agent); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveAgent(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	agent, err := domain.ParseAddress(chi.URLParam(r, "agent"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.RemoveAgent(ctx, requestcontext.Actor(ctx), agent); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	info := inst.Token.Info()
	supply, err := inst.Token.TotalSupply(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	paused, err := inst.Token.Paused(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":       info.Token.String(),
		"name":     info.Name,
		"symbol":   info.Symbol,
		"decimals": info.Decimals,
		"supply":   supply,
		"paused":   paused,
	})
}

type movementRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount uint64 `json:"amount"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req movementRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// A plain transfer always moves the operator's own funds.
	if err := inst.Token.Transfer(ctx, requestcontext.Actor(ctx), to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req movementRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.TransferFrom(ctx, requestcontext.Actor(ctx), from, to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req approveRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	spender, err := domain.ParseAddress(req.Spender)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.Approve(ctx, requestcontext.Actor(ctx), spender, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req movementRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.Mint(ctx, requestcontext.Actor(ctx), to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req movementRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.Burn(ctx, requestcontext.Actor(ctx), from, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleForcedTransfer(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req movementRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.ForcedTransfer(ctx, requestcontext.Actor(ctx), from, to, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type freezeAddressRequest struct {
	Wallet string `json:"wallet"`
	Frozen bool   `json:"frozen"`
}

func (h *Handler) handleFreezeAddress(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req freezeAddressRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	wallet, err := domain.ParseAddress(req.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Token.SetAddressFrozen(ctx, requestcontext.Actor(ctx), wallet, req.Frozen); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type freezeTokensRequest struct {
	Wallet string `json:"wallet"`
	Amount uint64 `json:"amount"`
}

func (h *Handler) handleFreezeTokens(w http.ResponseWriter, r *http.Request) {
	h.handlePartialFreeze(w, r, true)
}

func (h *Handler) handleUnfreezeTokens(w http.ResponseWriter, r *http.Request) {
	h.handlePartialFreeze(w, r, false)
}

func (h *Handler) handlePartialFreeze(w http.ResponseWriter, r *http.Request, freeze bool) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req freezeTokensRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	wallet, err := domain.ParseAddress(req.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor := requestcontext.Actor(ctx)
	if freeze {
		err = inst.Token.FreezePartialTokens(ctx, actor, wallet, req.Amount)
	} else {
		err = inst.Token.UnfreezePartialTokens(ctx, actor, wallet, req.Amount)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := inst.Token.Pause(ctx, requestcontext.Actor(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := inst.Token.Unpause(ctx, requestcontext.Actor(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	snap, err := inst.Token.Snapshot(ctx, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":     snap.ID.String(),
		"supply": snap.Supply,
	})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	wallet, err := domain.ParseAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := inst.Token.BalanceOf(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	frozen, err := inst.Token.FrozenTokens(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fullyFrozen, err := inst.Token.IsFrozen(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"balance":      balance,
		"frozen":       frozen,
		"available":    balance - frozen,
		"fully_frozen": fullyFrozen,
	})
}

type addModuleRequest struct {
	Kind       string   `json:"kind"`
	Countries  []uint64 `json:"countries,omitempty"`
	MaxHolders int      `json:"max_holders,omitempty"`
}

func (h *Handler) handleAddModule(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var req addModuleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	module, err := h.buildModule(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := inst.Compliance.AddModule(ctx, requestcontext.Actor(ctx), module); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) buildModule(req addModuleRequest) (compliance.Module, error) {
	countries := make([]domain.CountryCode, 0, len(req.Countries))
	for _, c := range req.Countries {
		code, err := domain.ParseCountryCode(c)
		if err != nil {
			return nil, err
		}
		countries = append(countries, code)
	}
	switch req.Kind {
	case "country_allow":
		return modules.NewCountryAllow(h.registry, countries...), nil
	case "country_deny":
		return modules.NewCountryDeny(h.registry, countries...), nil
	case "holder_limit":
		if req.MaxHolders <= 0 {
			return nil, derrors.New(derrors.CodeInvalidInput, "max_holders must be positive")
		}
		return modules.NewHolderLimit(h.registry, req.MaxHolders), nil
	default:
		return nil, derrors.Newf(derrors.CodeInvalidInput, "unknown module kind %q", req.Kind)
	}
}

func (h *Handler) handleRemoveModule(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := inst.Compliance.RemoveModule(ctx, requestcontext.Actor(ctx), chi.URLParam(r, "name")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instrument(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"modules": inst.Compliance.Modules()})
}
