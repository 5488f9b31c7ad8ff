package trust

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditmemory "aurum/pkg/platform/audit/store/memory"
	derrors "aurum/pkg/platform/errs"
)

func randomAddress(t *testing.T) domain.Address {
	t.Helper()
	var addr domain.Address
	if _, err := rand.Read(addr[:]); err != nil {
		t.Fatal(err)
	}
	return addr
}

type TrustSuite struct {
	suite.Suite
	owner   domain.Address
	topics  *TopicsRegistry
	issuers *IssuersRegistry
	ctx     context.Context
}

func TestTrustSuite(t *testing.T) {
	suite.Run(t, new(TrustSuite))
}

func (s *TrustSuite) SetupTest() {
	s.owner = randomAddress(s.T())
	recorder := audit.NewRecorder(auditmemory.NewInMemoryStore())
	s.topics = NewTopicsRegistry(s.owner, recorder)
	s.issuers = NewIssuersRegistry(s.owner, recorder)
	s.ctx = context.Background()
}

func (s *TrustSuite) TestTopics() {
	s.Run("add preserves registration order", func() {
		s.Require().NoError(s.topics.AddTopic(s.ctx, s.owner, domain.TopicAML))
		s.Require().NoError(s.topics.AddTopic(s.ctx, s.owner, domain.TopicKYC))
		s.Equal([]domain.Topic{domain.TopicAML, domain.TopicKYC}, s.topics.RequiredTopics(s.ctx))
	})

	s.Run("duplicate topic rejected", func() {
		s.Require().NoError(s.topics.AddTopic(s.ctx, s.owner, domain.TopicResidency))
		err := s.topics.AddTopic(s.ctx, s.owner, domain.TopicResidency)
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("only owner mutates", func() {
		err := s.topics.AddTopic(s.ctx, randomAddress(s.T()), domain.TopicKYC)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("cap enforced", func() {
		fresh := NewTopicsRegistry(s.owner, audit.NewRecorder(auditmemory.NewInMemoryStore()))
		for i := 0; i < MaxRequiredTopics; i++ {
			s.Require().NoError(fresh.AddTopic(s.ctx, s.owner, domain.Topic(100+i)))
		}
		err := fresh.AddTopic(s.ctx, s.owner, domain.Topic(999))
		s.True(derrors.HasCode(err, derrors.CodeCapExceeded))
	})

	s.Run("remove then list", func() {
		fresh := NewTopicsRegistry(s.owner, audit.NewRecorder(auditmemory.NewInMemoryStore()))
		s.Require().NoError(fresh.AddTopic(s.ctx, s.owner, domain.TopicKYC))
		s.Require().NoError(fresh.RemoveTopic(s.ctx, s.owner, domain.TopicKYC))
		s.Empty(fresh.RequiredTopics(s.ctx))

		err := fresh.RemoveTopic(s.ctx, s.owner, domain.TopicKYC)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})
}

func (s *TrustSuite) TestIssuers() {
	s.Run("issuer trusted only for granted topics", func() {
		issuer := randomAddress(s.T())
		s.Require().NoError(s.issuers.AddIssuer(s.ctx, s.owner, issuer, []domain.Topic{domain.TopicKYC}))

		s.True(s.issuers.IsTrusted(s.ctx, issuer))
		s.True(s.issuers.HasTopic(s.ctx, issuer, domain.TopicKYC))
		s.False(s.issuers.HasTopic(s.ctx, issuer, domain.TopicAML))
	})

	s.Run("update replaces topic grant", func() {
		issuer := randomAddress(s.T())
		s.Require().NoError(s.issuers.AddIssuer(s.ctx, s.owner, issuer, []domain.Topic{domain.TopicKYC}))
		s.Require().NoError(s.issuers.UpdateIssuerTopics(s.ctx, s.owner, issuer, []domain.Topic{domain.TopicAML}))

		s.False(s.issuers.HasTopic(s.ctx, issuer, domain.TopicKYC))
		s.True(s.issuers.HasTopic(s.ctx, issuer, domain.TopicAML))
	})

	s.Run("remove revokes trust entirely", func() {
		issuer := randomAddress(s.T())
		s.Require().NoError(s.issuers.AddIssuer(s.ctx, s.owner, issuer, []domain.Topic{domain.TopicKYC}))
		s.Require().NoError(s.issuers.RemoveIssuer(s.ctx, s.owner, issuer))

		s.False(s.issuers.IsTrusted(s.ctx, issuer))
		s.False(s.issuers.HasTopic(s.ctx, issuer, domain.TopicKYC))
	})

	s.Run("duplicate issuer rejected", func() {
		issuer := randomAddress(s.T())
		s.Require().NoError(s.issuers.AddIssuer(s.ctx, s.owner, issuer, []domain.Topic{domain.TopicKYC}))
		err := s.issuers.AddIssuer(s.ctx, s.owner, issuer, []domain.Topic{domain.TopicAML})
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("per-issuer topic cap enforced", func() {
		issuer := randomAddress(s.T())
		topics := make([]domain.Topic, MaxTopicsPerIssuer+1)
		for i := range topics {
			topics[i] = domain.Topic(i + 1)
		}
		err := s.issuers.AddIssuer(s.ctx, s.owner, issuer, topics)
		s.True(derrors.HasCode(err, derrors.CodeCapExceeded))
	})
}
