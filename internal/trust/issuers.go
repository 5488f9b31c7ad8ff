package trust

import (
	"context"
	"strconv"
	"sync"

	"aurum/internal/platform/access"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
)

// Caps are policy, bounding per-transfer verification work. Defaults mirror
// the reference limits.
const (
	MaxTrustedIssuers  = 50
	MaxTopicsPerIssuer = 15
)

// IssuerEntry maps one trusted issuer to the topics it may assert.
type IssuerEntry struct {
	Issuer domain.Address
	Topics []domain.Topic
}

// IssuersRegistry maps issuer → allowed topic set, in registration order.
type IssuersRegistry struct {
	mu      sync.RWMutex
	entries []IssuerEntry
	acl     *access.Controller
	audit   Recorder
}

func NewIssuersRegistry(owner domain.Address, recorder Recorder) *IssuersRegistry {
	return &IssuersRegistry{acl: access.NewController(owner), audit: recorder}
}

func validTopics(topics []domain.Topic) error {
	if len(topics) == 0 {
		return derrors.New(derrors.CodeInvalidInput, "issuer must be trusted for at least one topic")
	}
	if len(topics) > MaxTopicsPerIssuer {
		return derrors.New(derrors.CodeCapExceeded, "issuer topic set is too large")
	}
	seen := make(map[domain.Topic]struct{}, len(topics))
	for _, t := range topics {
		if _, dup := seen[t]; dup {
			return derrors.New(derrors.CodeInvalidInput, "duplicate topic in issuer topic set")
		}
		seen[t] = struct{}{}
	}
	return nil
}

// AddIssuer registers an issuer with the set of topics it may assert.
func (r *IssuersRegistry) AddIssuer(ctx context.Context, actor, issuer domain.Address, topics []domain.Topic) error {
	if err := r.acl.RequireOwner(actor); err != nil {
		return err
	}
	if issuer.IsZero() {
		return derrors.New(derrors.CodeInvalidInput, "issuer address must not be zero")
	}
	if err := validTopics(topics); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Issuer == issuer {
			return derrors.New(derrors.CodeConflict, "issuer already trusted")
		}
	}
	if len(r.entries) >= MaxTrustedIssuers {
		return derrors.New(derrors.CodeCapExceeded, "trusted issuer registry is full")
	}
	r.entries = append(r.entries, IssuerEntry{
		Issuer: issuer,
		Topics: append([]domain.Topic(nil), topics...),
	})
	return r.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionIssuerAdded,
		Actor:   actor,
		Subject: issuer.String(),
	})
}

// UpdateIssuerTopics replaces an issuer's allowed topic set.
func (r *IssuersRegistry) UpdateIssuerTopics(ctx context.Context, actor, issuer domain.Address, topics []domain.Topic) error {
	if err := r.acl.RequireOwner(actor); err != nil {
		return err
	}
	if err := validTopics(topics); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.Issuer == issuer {
			r.entries[i].Topics = append([]domain.Topic(nil), topics...)
			return r.audit.Emit(ctx, audit.Event{
				Action:  audit.ActionIssuerUpdated,
				Actor:   actor,
				Subject: issuer.String(),
			})
		}
	}
	return derrors.New(derrors.CodeNotFound, "issuer not trusted")
}

// RemoveIssuer drops an issuer entirely.
func (r *IssuersRegistry) RemoveIssuer(ctx context.Context, actor, issuer domain.Address) error {
	if err := r.acl.RequireOwner(actor); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.Issuer == issuer {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return r.audit.Emit(ctx, audit.Event{
				Action:  audit.ActionIssuerRemoved,
				Actor:   actor,
				Subject: issuer.String(),
			})
		}
	}
	return derrors.New(derrors.CodeNotFound, "issuer not trusted")
}

// IsTrusted reports whether issuer is registered at all.
func (r *IssuersRegistry) IsTrusted(_ context.Context, issuer domain.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Issuer == issuer {
			return true
		}
	}
	return false
}

// HasTopic reports whether issuer may assert the given topic. Trust is
// per-topic: a KYC issuer is not thereby an AML issuer.
func (r *IssuersRegistry) HasTopic(_ context.Context, issuer domain.Address, topic domain.Topic) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Issuer != issuer {
			continue
		}
		for _, t := range e.Topics {
			if t == topic {
				return true
			}
		}
		return false
	}
	return false
}

// Issuers returns the registered entries in registration order.
func (r *IssuersRegistry) Issuers(_ context.Context) []IssuerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]IssuerEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = IssuerEntry{Issuer: e.Issuer, Topics: append([]domain.Topic(nil), e.Topics...)}
	}
	return out
}

func topicString(t domain.Topic) string {
	return strconv.FormatUint(uint64(t), 10)
}
