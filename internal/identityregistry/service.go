// Package identityregistry resolves wallet addresses to Identity records and
// implements the isVerified decision procedure over the trust registries.
package identityregistry

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"aurum/internal/identity/models"
	"aurum/internal/identityregistry/cache"
	"aurum/internal/identityregistry/metrics"
	regmodels "aurum/internal/identityregistry/models"
	"aurum/internal/platform/access"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/requestcontext"
)

// Store persists wallet bindings.
type Store interface {
	Save(ctx context.Context, binding regmodels.Binding) error
	Get(ctx context.Context, wallet domain.Address) (regmodels.Binding, error)
	Delete(ctx context.Context, wallet domain.Address) error
}

// IdentityReader loads identity aggregates for claim evaluation.
type IdentityReader interface {
	Identity(ctx context.Context, id domain.IdentityID) (*models.Identity, error)
}

// TopicsSource yields the required claim topics in registration order.
type TopicsSource interface {
	RequiredTopics(ctx context.Context) []domain.Topic
}

// IssuersSource answers per-topic issuer trust.
type IssuersSource interface {
	HasTopic(ctx context.Context, issuer domain.Address, topic domain.Topic) bool
}

// Recorder is the audit sink.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is one registry instance, typically shared by the tokens of one
// issuer deployment.
type Service struct {
	store      Store
	identities IdentityReader
	topics     TopicsSource
	issuers    IssuersSource
	countries  *cache.CountryCache
	acl        *access.Controller
	audit      Recorder
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithCountryCache attaches a Redis-backed country cache.
func WithCountryCache(c *cache.CountryCache) Option {
	return func(s *Service) { s.countries = c }
}

// WithMetrics attaches registry metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(owner domain.Address, store Store, identities IdentityReader, topics TopicsSource, issuers IssuersSource, recorder Recorder, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		identities: identities,
		topics:     topics,
		issuers:    issuers,
		acl:        access.NewController(owner),
		audit:      recorder,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Access exposes the registry's access controller for agent management.
func (s *Service) Access() *access.Controller { return s.acl }

// RegisterIdentity binds a wallet to an identity with a country attribute.
// A wallet registers at most once; multiple wallets may share one identity,
// in which case their token balances are the same ledger entry.
func (s *Service) RegisterIdentity(ctx context.Context, actor, wallet domain.Address, identityID domain.IdentityID, country domain.CountryCode) error {
	if err := s.acl.RequireAgent(actor); err != nil {
		return err
	}
	if wallet.IsZero() {
		return derrors.New(derrors.CodeInvalidInput, "wallet address must not be zero")
	}
	if identityID.IsNil() {
		return derrors.New(derrors.CodeInvalidInput, "identity id must not be nil")
	}
	if _, err := s.identities.Identity(ctx, identityID); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, wallet); err == nil {
		return derrors.New(derrors.CodeConflict, "wallet is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return derrors.Wrap(derrors.CodeInternal, "lookup wallet", err)
	}

	binding := regmodels.Binding{
		Wallet:       wallet,
		Identity:     identityID,
		Country:      country,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, binding); err != nil {
		return derrors.Wrap(derrors.CodeInternal, "save wallet binding", err)
	}
	s.countries.Invalidate(ctx, wallet)
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionWalletRegistered,
		Actor:   actor,
		Subject: wallet.String(),
		Reason:  "country=" + strconv.FormatUint(uint64(country), 10),
	})
}

// DeleteIdentity removes a wallet binding.
func (s *Service) DeleteIdentity(ctx context.Context, actor, wallet domain.Address) error {
	if err := s.acl.RequireAgent(actor); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, wallet); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "wallet is not registered")
		}
		return derrors.Wrap(derrors.CodeInternal, "delete wallet binding", err)
	}
	s.countries.Invalidate(ctx, wallet)
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionWalletRemoved,
		Actor:   actor,
		Subject: wallet.String(),
	})
}

// UpdateCountry changes the country attribute of a binding.
func (s *Service) UpdateCountry(ctx context.Context, actor, wallet domain.Address, country domain.CountryCode) error {
	if err := s.acl.RequireAgent(actor); err != nil {
		return err
	}
	binding, err := s.binding(ctx, wallet)
	if err != nil {
		return err
	}
	binding.Country = country
	if err := s.store.Save(ctx, binding); err != nil {
		return derrors.Wrap(derrors.CodeInternal, "save wallet binding", err)
	}
	s.countries.Invalidate(ctx, wallet)
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionCountryUpdated,
		Actor:   actor,
		Subject: wallet.String(),
		Reason:  "country=" + strconv.FormatUint(uint64(country), 10),
	})
}

// UpdateIdentity repoints a wallet at a different identity record.
func (s *Service) UpdateIdentity(ctx context.Context, actor, wallet domain.Address, identityID domain.IdentityID) error {
	if err := s.acl.RequireAgent(actor); err != nil {
		return err
	}
	if _, err := s.identities.Identity(ctx, identityID); err != nil {
		return err
	}
	binding, err := s.binding(ctx, wallet)
	if err != nil {
		return err
	}
	binding.Identity = identityID
	if err := s.store.Save(ctx, binding); err != nil {
		return derrors.Wrap(derrors.CodeInternal, "save wallet binding", err)
	}
	s.countries.Invalidate(ctx, wallet)
	return s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionIdentityUpdated,
		Actor:   actor,
		Subject: wallet.String(),
		Reason:  identityID.String(),
	})
}

// Contains reports whether a wallet is registered.
func (s *Service) Contains(ctx context.Context, wallet domain.Address) bool {
	_, err := s.store.Get(ctx, wallet)
	return err == nil
}

// Identity resolves a wallet to its identity ID.
func (s *Service) Identity(ctx context.Context, wallet domain.Address) (domain.IdentityID, error) {
	binding, err := s.binding(ctx, wallet)
	if err != nil {
		return domain.IdentityID{}, err
	}
	return binding.Identity, nil
}

// InvestorCountry resolves a wallet to its country attribute, consulting the
// cache first.
func (s *Service) InvestorCountry(ctx context.Context, wallet domain.Address) (domain.CountryCode, error) {
	if country, ok := s.countries.Get(ctx, wallet); ok {
		s.metrics.IncCountryCache("hit")
		return country, nil
	}
	s.metrics.IncCountryCache("miss")
	binding, err := s.binding(ctx, wallet)
	if err != nil {
		return 0, err
	}
	s.countries.Set(ctx, wallet, binding.Country)
	return binding.Country, nil
}

func (s *Service) binding(ctx context.Context, wallet domain.Address) (regmodels.Binding, error) {
	binding, err := s.store.Get(ctx, wallet)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return regmodels.Binding{}, derrors.New(derrors.CodeNotFound, "wallet is not registered")
		}
		return regmodels.Binding{}, derrors.Wrap(derrors.CodeInternal, "get wallet binding", err)
	}
	return binding, nil
}
