//go:build integration

package postgres_test

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	"aurum/pkg/platform/audit/store/postgres"
	"aurum/pkg/testutil/containers"
)

const auditOutboxDDL = `
	CREATE TABLE IF NOT EXISTS audit_outbox (
	    id           TEXT PRIMARY KEY,
	    action       TEXT NOT NULL,
	    token_id     TEXT,
	    payload      JSONB NOT NULL,
	    created_at   TIMESTAMPTZ NOT NULL,
	    published_at TIMESTAMPTZ
	)`

type OutboxStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	actor    domain.Address
	ctx      context.Context
}

func TestOutboxStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxStoreSuite))
}

func (s *OutboxStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), auditOutboxDDL)
	s.store = postgres.New(s.postgres.DB)
	_, err := rand.Read(s.actor[:])
	s.Require().NoError(err)
}

func (s *OutboxStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "audit_outbox"))
}

func (s *OutboxStoreSuite) append(action audit.Action, at time.Time) string {
	id := uuid.NewString()
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		ID:        id,
		Timestamp: at,
		Action:    action,
		Token:     domain.NewTokenID(),
		Actor:     s.actor,
		Amount:    100,
	}))
	return id
}

func (s *OutboxStoreSuite) TestAppendAndFetch() {
	base := time.Now().UTC()
	first := s.append(audit.ActionMint, base)
	second := s.append(audit.ActionTransfer, base.Add(time.Millisecond))
	third := s.append(audit.ActionBurn, base.Add(2*time.Millisecond))

	rows, err := s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal(first, rows[0].ID)
	s.Equal(second, rows[1].ID)
	s.Equal(third, rows[2].ID)

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rows[0].Payload, &payload))
	s.Equal(string(audit.ActionMint), payload["Action"])
	s.Equal(s.actor.String(), payload["Actor"])
}

func (s *OutboxStoreSuite) TestFetchHonorsLimit() {
	base := time.Now().UTC()
	s.append(audit.ActionMint, base)
	s.append(audit.ActionBurn, base.Add(time.Millisecond))

	rows, err := s.store.FetchUnpublished(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *OutboxStoreSuite) TestMarkPublished() {
	base := time.Now().UTC()
	first := s.append(audit.ActionMint, base)
	second := s.append(audit.ActionBurn, base.Add(time.Millisecond))

	s.Require().NoError(s.store.MarkPublished(s.ctx, []string{first}, time.Now()))

	rows, err := s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(second, rows[0].ID)

	s.Require().NoError(s.store.MarkPublished(s.ctx, nil, time.Now()))
}
