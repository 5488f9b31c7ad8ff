package identityregistry

import (
	"bytes"
	"context"
	"time"

	"aurum/internal/identity"
	idmodels "aurum/internal/identity/models"
	"aurum/pkg/domain"
)

// Verification failure reasons, recorded in metrics.
const (
	reasonOK              = "ok"
	reasonUnregistered    = "wallet_unregistered"
	reasonIdentityMissing = "identity_missing"
	reasonTopicUncovered  = "topic_uncovered"
)

// IsVerified decides whether a wallet's identity covers every required claim
// topic. The result is the conjunction over all topics: a holder with two of
// three required claims is not verified.
//
// Per topic, claims are evaluated in registration order and the first claim
// that is (a) from an issuer trusted for that exact topic, (b) not revoked,
// and (c) signature-valid satisfies the topic; a topic with no satisfying
// claim short-circuits the whole evaluation to false.
func (s *Service) IsVerified(ctx context.Context, wallet domain.Address) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveVerification(time.Since(start)) }()

	binding, err := s.store.Get(ctx, wallet)
	if err != nil {
		// Unregistered wallets are simply not verified; store faults are not.
		s.metrics.IncVerification("false", reasonUnregistered)
		return false, nil
	}

	holder, err := s.identities.Identity(ctx, binding.Identity)
	if err != nil {
		s.metrics.IncVerification("false", reasonIdentityMissing)
		return false, nil
	}

	required := s.topics.RequiredTopics(ctx)
	// No requirements configured means verified. Deliberate permissive
	// default: an unconfigured topic registry is "no admission policy yet",
	// not "admit nobody".
	if len(required) == 0 {
		s.metrics.IncVerification("true", reasonOK)
		return true, nil
	}

	for _, topic := range required {
		if !s.topicCovered(ctx, holder, topic) {
			s.metrics.IncVerification("false", reasonTopicUncovered)
			return false, nil
		}
	}
	s.metrics.IncVerification("true", reasonOK)
	return true, nil
}

func (s *Service) topicCovered(ctx context.Context, holder *idmodels.Identity, topic domain.Topic) bool {
	for _, claim := range holder.Claims {
		if claim.Topic != topic || claim.Revoked {
			continue
		}
		if !s.issuers.HasTopic(ctx, claim.Issuer, topic) {
			continue
		}
		if !s.claimSignerValid(ctx, claim) {
			continue
		}
		if identity.VerifyClaimSignature(claim.SignerKey, claim.ID, claim.Topic, claim.Data, claim.Signature) {
			return true
		}
	}
	return false
}

// claimSignerValid checks that the claim's signing key actually speaks for
// the claim's issuer. If the issuer address resolves to a registered
// Identity, the signer must be that identity's controlling owner key, not
// any key tied to the issuer address itself. For issuers outside the
// registry, the key must derive the issuer address directly. The owner
// indirection lets issuer identities rotate controlling keys without
// re-issuing claims.
func (s *Service) claimSignerValid(ctx context.Context, claim idmodels.Claim) bool {
	if binding, err := s.store.Get(ctx, claim.Issuer); err == nil {
		issuerIdentity, err := s.identities.Identity(ctx, binding.Identity)
		if err != nil {
			return false
		}
		return bytes.Equal(claim.SignerKey, issuerIdentity.OwnerKey)
	}
	return domain.AddressFromKey(claim.SignerKey) == claim.Issuer
}
