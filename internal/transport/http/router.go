// Package httptransport is the thin HTTP layer. Handlers decode, validate
// and delegate to domain services; the acting operator address comes from
// the bearer token, never from the request body.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"aurum/internal/instruments"
	"aurum/internal/platform/middleware"
	"aurum/pkg/domain"
)

// InstrumentFactory builds and registers a new token instrument owned by
// the given address. main supplies it so construction stays wired to the
// process's shared stores and metrics.
type InstrumentFactory func(name, symbol string, decimals uint8, owner domain.Address) (instruments.Instrument, error)

// Handler wires the API endpoints to the domain services.
type Handler struct {
	identities    IdentityService
	topics        TopicsService
	issuers       IssuersService
	registry      RegistryService
	instruments   *instruments.Registry
	newInstrument InstrumentFactory
	assets        AssetService
	redemptions   RedemptionService
	dividends     DividendService
	logger        *slog.Logger
}

func NewHandler(
	identities IdentityService,
	topics TopicsService,
	issuers IssuersService,
	registry RegistryService,
	insts *instruments.Registry,
	newInstrument InstrumentFactory,
	assets AssetService,
	redemptions RedemptionService,
	dividends DividendService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		identities:    identities,
		topics:        topics,
		issuers:       issuers,
		registry:      registry,
		instruments:   insts,
		newInstrument: newInstrument,
		assets:        assets,
		redemptions:   redemptions,
		dividends:     dividends,
		logger:        logger,
	}
}

// NewRouter mounts every endpoint behind request-ID tagging and operator
// authentication. Health stays open.
func NewRouter(h *Handler, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperator(validator, h.logger))

		r.Route("/identities", func(r chi.Router) {
			r.Post("/", h.handleDeployIdentity)
			r.Get("/{identityID}", h.handleGetIdentity)
			r.Post("/{identityID}/keys", h.handleAddKey)
			r.Delete("/{identityID}/keys/{holder}", h.handleRemoveKey)
			r.Post("/{identityID}/claims", h.handleAddClaim)
			r.Post("/{identityID}/claims/{claimID}/revoke", h.handleRevokeClaim)
			r.Delete("/{identityID}/claims/{claimID}", h.handleRemoveClaim)
		})

		r.Route("/trust", func(r chi.Router) {
			r.Get("/topics", h.handleListTopics)
			r.Post("/topics", h.handleAddTopic)
			r.Delete("/topics/{topic}", h.handleRemoveTopic)
			r.Get("/issuers", h.handleListIssuers)
			r.Post("/issuers", h.handleAddIssuer)
			r.Put("/issuers/{issuer}", h.handleUpdateIssuer)
			r.Delete("/issuers/{issuer}", h.handleRemoveIssuer)
		})

		r.Route("/registry", func(r chi.Router) {
			r.Post("/wallets", h.handleRegisterWallet)
			r.Delete("/wallets/{wallet}", h.handleDeleteWallet)
			r.Put("/wallets/{wallet}/country", h.handleUpdateCountry)
			r.Put("/wallets/{wallet}/identity", h.handleUpdateIdentity)
			r.Get("/wallets/{wallet}", h.handleGetWallet)
			r.Get("/wallets/{wallet}/verified", h.handleIsVerified)
		})

		r.Post("/tokens", h.handleCreateToken)
		r.Route("/tokens/{tokenID}", func(r chi.Router) {
			r.Get("/", h.handleTokenInfo)
			r.Post("/agents", h.handleAddAgent)
			r.Delete("/agents/{agent}", h.handleRemoveAgent)
			r.Post("/transfer", h.handleTransfer)
			r.Post("/transfer-from", h.handleTransferFrom)
			r.Post("/approve", h.handleApprove)
			r.Post("/mint", h.handleMint)
			r.Post("/burn", h.handleBurn)
			r.Post("/forced-transfer", h.handleForcedTransfer)
			r.Post("/freeze-address", h.handleFreezeAddress)
			r.Post("/freeze-tokens", h.handleFreezeTokens)
			r.Post("/unfreeze-tokens", h.handleUnfreezeTokens)
			r.Post("/pause", h.handlePause)
			r.Post("/unpause", h.handleUnpause)
			r.Post("/snapshot", h.handleSnapshot)
			r.Get("/balances/{wallet}", h.handleBalance)
			r.Post("/compliance/modules", h.handleAddModule)
			r.Delete("/compliance/modules/{name}", h.handleRemoveModule)
			r.Get("/compliance/modules", h.handleListModules)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", h.handleMintAsset)
			r.Get("/{assetID}", h.handleGetAsset)
		})

		r.Route("/redemptions", func(r chi.Router) {
			r.Post("/register-asset", h.handleRegisterAsset)
			r.Post("/", h.handleRequestRedemption)
			r.Get("/{redemptionID}", h.handleGetRedemption)
			r.Post("/{redemptionID}/lock", h.handleLockShares)
			r.Post("/{redemptionID}/burn", h.handleBurnShares)
			r.Post("/{redemptionID}/complete", h.handleCompleteRedemption)
			r.Post("/{redemptionID}/cancel", h.handleCancelRedemption)
		})

		r.Route("/dividends", func(r chi.Router) {
			r.Post("/", h.handleDeclareDividend)
			r.Get("/{distributionID}/entitlement", h.handleEntitlement)
			r.Post("/{distributionID}/claim", h.handleClaimDividend)
		})
	})

	return r
}
