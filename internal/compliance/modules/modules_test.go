package modules_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"aurum/internal/compliance/modules"
	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
)

// fakeRegistry maps wallets to identities and countries, standing in for the
// identity registry.
type fakeRegistry struct {
	identities map[domain.Address]domain.IdentityID
	countries  map[domain.Address]domain.CountryCode
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		identities: make(map[domain.Address]domain.IdentityID),
		countries:  make(map[domain.Address]domain.CountryCode),
	}
}

func (f *fakeRegistry) Identity(_ context.Context, wallet domain.Address) (domain.IdentityID, error) {
	id, ok := f.identities[wallet]
	if !ok {
		return domain.IdentityID{}, derrors.New(derrors.CodeNotFound, "wallet is not registered")
	}
	return id, nil
}

func (f *fakeRegistry) InvestorCountry(_ context.Context, wallet domain.Address) (domain.CountryCode, error) {
	country, ok := f.countries[wallet]
	if !ok {
		return 0, derrors.New(derrors.CodeNotFound, "wallet is not registered")
	}
	return country, nil
}

func (f *fakeRegistry) add(country domain.CountryCode) domain.Address {
	var wallet domain.Address
	if _, err := rand.Read(wallet[:]); err != nil {
		panic(err)
	}
	f.identities[wallet] = domain.NewIdentityID()
	f.countries[wallet] = country
	return wallet
}

type ModulesSuite struct {
	suite.Suite
	registry *fakeRegistry
	ctx      context.Context
}

func TestModulesSuite(t *testing.T) {
	suite.Run(t, new(ModulesSuite))
}

func (s *ModulesSuite) SetupTest() {
	s.registry = newFakeRegistry()
	s.ctx = context.Background()
}

func (s *ModulesSuite) TestCountryAllow() {
	sender := s.registry.add(840)
	swiss := s.registry.add(756)
	german := s.registry.add(276)
	m := modules.NewCountryAllow(s.registry, 756)

	s.Run("recipient on the list passes", func() {
		ok, reason := m.Check(s.ctx, sender, swiss, 10)
		s.True(ok)
		s.Empty(reason)
	})

	s.Run("recipient off the list fails", func() {
		ok, _ := m.Check(s.ctx, sender, german, 10)
		s.False(ok)
	})

	s.Run("list updates take effect", func() {
		m.Allow(276)
		ok, _ := m.Check(s.ctx, sender, german, 10)
		s.True(ok)

		m.Disallow(276)
		ok, _ = m.Check(s.ctx, sender, german, 10)
		s.False(ok)
	})

	s.Run("unknown recipient fails", func() {
		var stranger domain.Address
		_, err := rand.Read(stranger[:])
		s.Require().NoError(err)
		ok, reason := m.Check(s.ctx, sender, stranger, 10)
		s.False(ok)
		s.Equal("recipient country unknown", reason)
	})

	s.Run("binding requires a registry", func() {
		s.False(modules.NewCountryAllow(nil).CanBind(s.ctx, domain.NewTokenID()))
		s.True(m.CanBind(s.ctx, domain.NewTokenID()))
	})
}

func (s *ModulesSuite) TestCountryDeny() {
	sender := s.registry.add(840)
	swiss := s.registry.add(756)
	german := s.registry.add(276)
	m := modules.NewCountryDeny(s.registry, 276)

	s.Run("recipient off the list passes", func() {
		ok, _ := m.Check(s.ctx, sender, swiss, 10)
		s.True(ok)
	})

	s.Run("recipient on the list fails", func() {
		ok, reason := m.Check(s.ctx, sender, german, 10)
		s.False(ok)
		s.Equal("recipient country is deny-listed", reason)
	})

	s.Run("undeny lifts the rejection", func() {
		m.Undeny(276)
		ok, _ := m.Check(s.ctx, sender, german, 10)
		s.True(ok)
	})
}

func (s *ModulesSuite) TestHolderLimit() {
	alice := s.registry.add(840)
	bob := s.registry.add(756)
	carol := s.registry.add(276)
	m := modules.NewHolderLimit(s.registry, 2)

	s.Run("mints count holders", func() {
		m.Created(s.ctx, alice, 100)
		m.Created(s.ctx, bob, 50)
		s.Equal(2, m.HolderCount())
	})

	s.Run("transfer introducing a third holder is rejected", func() {
		ok, reason := m.Check(s.ctx, alice, carol, 10)
		s.False(ok)
		s.Equal("transfer would exceed the holder limit", reason)
	})

	s.Run("transfer to an existing holder passes", func() {
		ok, _ := m.Check(s.ctx, alice, bob, 10)
		s.True(ok)
		m.Transferred(s.ctx, alice, bob, 10)
		s.Equal(2, m.HolderCount())
	})

	s.Run("full exit makes room for a new holder", func() {
		// Alice holds 90 after the transfer above; sending it all keeps
		// the count at two.
		ok, _ := m.Check(s.ctx, alice, carol, 90)
		s.True(ok)
		m.Transferred(s.ctx, alice, carol, 90)
		s.Equal(2, m.HolderCount())
	})

	s.Run("burn to zero drops the holder", func() {
		m.Destroyed(s.ctx, carol, 90)
		s.Equal(1, m.HolderCount())
	})

	s.Run("zero amount always passes", func() {
		ok, _ := m.Check(s.ctx, alice, carol, 0)
		s.True(ok)
	})

	s.Run("transfers within one identity never add holders", func() {
		wallet1 := s.registry.add(840)
		wallet2 := s.registry.add(840)
		s.registry.identities[wallet2] = s.registry.identities[wallet1]
		limited := modules.NewHolderLimit(s.registry, 1)
		limited.Created(s.ctx, wallet1, 40)

		ok, _ := limited.Check(s.ctx, wallet1, wallet2, 15)
		s.True(ok)
		limited.Transferred(s.ctx, wallet1, wallet2, 15)
		s.Equal(1, limited.HolderCount())
	})

	s.Run("binding requires a resolver and a positive cap", func() {
		s.False(modules.NewHolderLimit(nil, 5).CanBind(s.ctx, domain.NewTokenID()))
		s.False(modules.NewHolderLimit(s.registry, 0).CanBind(s.ctx, domain.NewTokenID()))
		s.True(m.CanBind(s.ctx, domain.NewTokenID()))
	})
}
