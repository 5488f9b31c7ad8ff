//go:build integration

package store_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/identity/models"
	"aurum/internal/identity/store"
	"aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
	"aurum/pkg/testutil/containers"
)

const identitiesDDL = `
	CREATE TABLE IF NOT EXISTS identities (
	    id          UUID PRIMARY KEY,
	    owner       TEXT NOT NULL UNIQUE,
	    owner_key   BYTEA NOT NULL,
	    keys        JSONB NOT NULL,
	    claims      JSONB NOT NULL,
	    deployed_at TIMESTAMPTZ NOT NULL
	)`

type IdentityStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestIdentityStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IdentityStoreSuite))
}

func (s *IdentityStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), identitiesDDL)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *IdentityStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "identities"))
}

func (s *IdentityStoreSuite) newIdentity() *models.Identity {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	owner := domain.AddressFromKey(pub)

	var keyHolder domain.Address
	_, err = rand.Read(keyHolder[:])
	s.Require().NoError(err)

	var issuer domain.Address
	_, err = rand.Read(issuer[:])
	s.Require().NoError(err)

	return &models.Identity{
		ID:       domain.NewIdentityID(),
		Owner:    owner,
		OwnerKey: pub,
		Keys: []models.Key{{
			ID:       "key-1",
			Address:  keyHolder,
			Purposes: []domain.Purpose{domain.PurposeManagement, domain.PurposeClaim},
			Type:     domain.KeyTypeEd25519,
		}},
		Claims: []models.Claim{{
			ID:        "claim-1",
			Topic:     domain.Topic(1),
			Scheme:    1,
			Issuer:    issuer,
			Signature: []byte("sig"),
			SignerKey: pub,
			Data:      []byte("kyc-evidence"),
			URI:       "https://issuer.example/claims/1",
			Revocable: true,
			AddedAt:   time.Now().UTC(),
		}},
		DeployedAt: time.Now().UTC(),
	}
}

func (s *IdentityStoreSuite) TestSaveAndGet() {
	ident := s.newIdentity()
	s.Require().NoError(s.store.Save(s.ctx, ident))

	got, err := s.store.Get(s.ctx, ident.ID)
	s.Require().NoError(err)
	s.Equal(ident.ID, got.ID)
	s.Equal(ident.Owner, got.Owner)
	s.Equal(ident.OwnerKey, got.OwnerKey)
	s.Require().Len(got.Keys, 1)
	s.Equal(ident.Keys[0], got.Keys[0])
	s.Require().Len(got.Claims, 1)
	s.Equal(ident.Claims[0].ID, got.Claims[0].ID)
	s.Equal(ident.Claims[0].Signature, got.Claims[0].Signature)
	s.Equal(ident.Claims[0].SignerKey, got.Claims[0].SignerKey)
	s.Equal(ident.Claims[0].Issuer, got.Claims[0].Issuer)
	s.True(got.Claims[0].Revocable)
	s.WithinDuration(ident.DeployedAt, got.DeployedAt, time.Millisecond)
}

func (s *IdentityStoreSuite) TestGetByOwner() {
	ident := s.newIdentity()
	s.Require().NoError(s.store.Save(s.ctx, ident))

	got, err := s.store.GetByOwner(s.ctx, ident.Owner)
	s.Require().NoError(err)
	s.Equal(ident.ID, got.ID)
}

func (s *IdentityStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, domain.NewIdentityID())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))

	var owner domain.Address
	_, err = rand.Read(owner[:])
	s.Require().NoError(err)
	_, err = s.store.GetByOwner(s.ctx, owner)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *IdentityStoreSuite) TestSaveUpserts() {
	ident := s.newIdentity()
	s.Require().NoError(s.store.Save(s.ctx, ident))

	ident.Claims[0].Revoked = true
	ident.Keys = nil
	s.Require().NoError(s.store.Save(s.ctx, ident))

	got, err := s.store.Get(s.ctx, ident.ID)
	s.Require().NoError(err)
	s.Empty(got.Keys)
	s.Require().Len(got.Claims, 1)
	s.True(got.Claims[0].Revoked)
}