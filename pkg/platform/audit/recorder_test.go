package audit_test

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditmemory "aurum/pkg/platform/audit/store/memory"
)

// failingStore rejects every append.
type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("connection refused")
}

type RecorderSuite struct {
	suite.Suite
	actor domain.Address
	store *auditmemory.InMemoryStore
	ctx   context.Context
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = auditmemory.NewInMemoryStore()
	_, err := rand.Read(s.actor[:])
	s.Require().NoError(err)
}

func (s *RecorderSuite) TestEmit() {
	recorder := audit.NewRecorder(s.store)
	token := domain.NewTokenID()

	s.Run("fills identity and timestamp", func() {
		err := recorder.Emit(s.ctx, audit.Event{
			Action: audit.ActionMint,
			Token:  token,
			Actor:  s.actor,
			Amount: 500,
		})
		s.Require().NoError(err)

		events, err := s.store.ListByToken(s.ctx, token)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.NotEmpty(events[0].ID)
		s.False(events[0].Timestamp.IsZero())
		s.Equal(uint64(500), events[0].Amount)
	})

	s.Run("unknown action rejected", func() {
		err := recorder.Emit(s.ctx, audit.Event{Action: "made_up", Actor: s.actor})
		s.Require().Error(err)
		s.Contains(err.Error(), "unknown action")
	})

	s.Run("actor is mandatory", func() {
		err := recorder.Emit(s.ctx, audit.Event{Action: audit.ActionMint})
		s.Require().Error(err)
		s.Contains(err.Error(), "requires an actor")
	})

	s.Run("events keep append order per token", func() {
		s.Require().NoError(recorder.Emit(s.ctx, audit.Event{Action: audit.ActionPaused, Token: token, Actor: s.actor}))
		s.Require().NoError(recorder.Emit(s.ctx, audit.Event{Action: audit.ActionUnpaused, Token: token, Actor: s.actor}))

		events, err := s.store.ListByToken(s.ctx, token)
		s.Require().NoError(err)
		s.Require().Len(events, 3)
		s.Equal(audit.ActionPaused, events[1].Action)
		s.Equal(audit.ActionUnpaused, events[2].Action)
	})
}

// The recorder is fail-closed: a failed append must surface to the caller so
// the mutating operation aborts.
func (s *RecorderSuite) TestEmitFailClosed() {
	recorder := audit.NewRecorder(failingStore{})
	err := recorder.Emit(s.ctx, audit.Event{Action: audit.ActionTransfer, Actor: s.actor})
	s.Require().Error(err)
	s.Contains(err.Error(), "audit append")
}
