package dividend_test

import (
	"context"
	"crypto/rand"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"aurum/internal/dividend"
	"aurum/internal/token"
	tokenmodels "aurum/internal/token/models"
	tokenstore "aurum/internal/token/store"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditmemory "aurum/pkg/platform/audit/store/memory"
	derrors "aurum/pkg/platform/errs"
)

type fakeRegistry struct {
	identities map[domain.Address]domain.IdentityID
}

func (f *fakeRegistry) Identity(_ context.Context, wallet domain.Address) (domain.IdentityID, error) {
	id, ok := f.identities[wallet]
	if !ok {
		return domain.IdentityID{}, derrors.New(derrors.CodeNotFound, "wallet is not registered")
	}
	return id, nil
}

func (f *fakeRegistry) IsVerified(_ context.Context, wallet domain.Address) (bool, error) {
	_, ok := f.identities[wallet]
	return ok, nil
}

type passCompliance struct{}

func (passCompliance) CanTransfer(context.Context, domain.Address, domain.Address, uint64) (bool, string) {
	return true, ""
}
func (passCompliance) Transferred(context.Context, domain.Address, domain.Address, uint64) {}
func (passCompliance) Created(context.Context, domain.Address, uint64)                     {}
func (passCompliance) Destroyed(context.Context, domain.Address, uint64)                   {}

type singleToken struct {
	svc *token.Service
}

func (t singleToken) Snapshotter(id domain.TokenID) (dividend.Snapshotter, error) {
	if id != t.svc.ID() {
		return nil, derrors.Newf(derrors.CodeNotFound, "token %s is not known", id)
	}
	return t.svc, nil
}

type DividendSuite struct {
	suite.Suite
	issuer   domain.Address
	alice    domain.Address
	bob      domain.Address
	registry *fakeRegistry
	token    *token.Service
	service  *dividend.Service
	ctx      context.Context
}

func TestDividendSuite(t *testing.T) {
	suite.Run(t, new(DividendSuite))
}

func (s *DividendSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = &fakeRegistry{identities: make(map[domain.Address]domain.IdentityID)}
	recorder := audit.NewRecorder(auditmemory.NewInMemoryStore())

	s.issuer = s.newWallet()
	s.alice = s.newWallet()
	s.bob = s.newWallet()

	info := tokenmodels.Info{Token: domain.NewTokenID(), Name: "Gold Bond", Symbol: "AUB"}
	s.token = token.NewService(info, s.issuer, tokenstore.NewInMemoryLedger(), s.registry, passCompliance{}, recorder, nil)
	s.service = dividend.NewService(singleToken{s.token}, s.registry, recorder, nil)
}

func (s *DividendSuite) newWallet() domain.Address {
	var wallet domain.Address
	_, err := rand.Read(wallet[:])
	s.Require().NoError(err)
	s.registry.identities[wallet] = domain.NewIdentityID()
	return wallet
}

func (s *DividendSuite) TestDeclare() {
	s.Run("zero pool rejected", func() {
		_, err := s.service.Declare(s.ctx, s.issuer, s.token.ID(), 0)
		s.True(derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	s.Run("unknown token rejected", func() {
		_, err := s.service.Declare(s.ctx, s.issuer, domain.NewTokenID(), 100)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("zero supply rejected", func() {
		_, err := s.service.Declare(s.ctx, s.issuer, s.token.ID(), 100)
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})

	s.Run("non-agent cannot declare", func() {
		s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.alice, 100))
		_, err := s.service.Declare(s.ctx, s.alice, s.token.ID(), 100)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})
}

func (s *DividendSuite) TestEntitlement() {
	s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.alice, 600))
	s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.bob, 400))
	dist, err := s.service.Declare(s.ctx, s.issuer, s.token.ID(), 1000)
	s.Require().NoError(err)

	s.Run("pro rata split", func() {
		amount, err := s.service.Entitlement(s.ctx, dist, s.alice)
		s.Require().NoError(err)
		s.Equal(uint64(600), amount)
		amount, err = s.service.Entitlement(s.ctx, dist, s.bob)
		s.Require().NoError(err)
		s.Equal(uint64(400), amount)
	})

	s.Run("rounding floors toward the declarer", func() {
		// Pool of 100 over 600/400: 100*600/1000 = 60, 100*400/1000 = 40.
		// Pool of 7 floors: 7*600/1000 = 4, 7*400/1000 = 2, dust of 1 stays.
		small, err := s.service.Declare(s.ctx, s.issuer, s.token.ID(), 7)
		s.Require().NoError(err)
		a, err := s.service.Entitlement(s.ctx, small, s.alice)
		s.Require().NoError(err)
		b, err := s.service.Entitlement(s.ctx, small, s.bob)
		s.Require().NoError(err)
		s.Equal(uint64(4), a)
		s.Equal(uint64(2), b)
	})

	s.Run("large pools do not overflow", func() {
		big, err := s.service.Declare(s.ctx, s.issuer, s.token.ID(), math.MaxUint64)
		s.Require().NoError(err)
		a, err := s.service.Entitlement(s.ctx, big, s.alice)
		s.Require().NoError(err)
		// floor(MaxUint64 * 600 / 1000)
		s.Equal(uint64(11068046444225730969), a)
	})

	s.Run("movement after the snapshot changes nothing", func() {
		s.Require().NoError(s.token.Transfer(s.ctx, s.alice, s.bob, 600))
		amount, err := s.service.Entitlement(s.ctx, dist, s.alice)
		s.Require().NoError(err)
		s.Equal(uint64(600), amount)
	})
}

func (s *DividendSuite) TestClaim() {
	s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.alice, 750))
	s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.bob, 250))
	dist, err := s.service.Declare(s.ctx, s.issuer, s.token.ID(), 1000)
	s.Require().NoError(err)

	s.Run("claim pays the entitlement once", func() {
		amount, err := s.service.Claim(s.ctx, dist, s.alice)
		s.Require().NoError(err)
		s.Equal(uint64(750), amount)

		_, err = s.service.Claim(s.ctx, dist, s.alice)
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("claim is per identity, not per wallet", func() {
		second := s.newWallet()
		s.registry.identities[second] = s.registry.identities[s.bob]

		amount, err := s.service.Claim(s.ctx, dist, s.bob)
		s.Require().NoError(err)
		s.Equal(uint64(250), amount)

		_, err = s.service.Claim(s.ctx, dist, second)
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("zero entitlement cannot claim", func() {
		outsider := s.newWallet()
		_, err := s.service.Claim(s.ctx, dist, outsider)
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})

	s.Run("unknown distribution rejected", func() {
		_, err := s.service.Claim(s.ctx, domain.NewSnapshotID(), s.alice)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})
}
