// Package trust holds the two registries that delegate trust: which claim
// topics an identity must cover to be verified, and which issuers may assert
// which topics. One instance of each serves one token deployment.
package trust

import (
	"context"
	"sync"

	"aurum/internal/platform/access"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
)

// Recorder is the audit sink shared by both registries.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// MaxRequiredTopics bounds the required-topic list. The cap is policy (it
// bounds verification work per wallet); the default mirrors the reference.
const MaxRequiredTopics = 15

// TopicsRegistry is the ordered set of claim topics required for any identity
// to be considered verified.
type TopicsRegistry struct {
	mu     sync.RWMutex
	topics []domain.Topic
	acl    *access.Controller
	audit  Recorder
}

func NewTopicsRegistry(owner domain.Address, recorder Recorder) *TopicsRegistry {
	return &TopicsRegistry{acl: access.NewController(owner), audit: recorder}
}

// AddTopic appends a required topic. Duplicates are rejected.
func (r *TopicsRegistry) AddTopic(ctx context.Context, actor domain.Address, topic domain.Topic) error {
	if err := r.acl.RequireOwner(actor); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t == topic {
			return derrors.New(derrors.CodeConflict, "topic already required")
		}
	}
	if len(r.topics) >= MaxRequiredTopics {
		return derrors.New(derrors.CodeCapExceeded, "required topic list is full")
	}
	r.topics = append(r.topics, topic)
	return r.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionTopicAdded,
		Actor:   actor,
		Subject: topicString(topic),
	})
}

// RemoveTopic drops a required topic.
func (r *TopicsRegistry) RemoveTopic(ctx context.Context, actor domain.Address, topic domain.Topic) error {
	if err := r.acl.RequireOwner(actor); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.topics {
		if t == topic {
			r.topics = append(r.topics[:i], r.topics[i+1:]...)
			return r.audit.Emit(ctx, audit.Event{
				Action:  audit.ActionTopicRemoved,
				Actor:   actor,
				Subject: topicString(topic),
			})
		}
	}
	return derrors.New(derrors.CodeNotFound, "topic not required")
}

// RequiredTopics returns the topics in registration order. An empty list
// means no admission policy is configured yet; verification treats that as
// "verified" (preserved permissive default).
func (r *TopicsRegistry) RequiredTopics(_ context.Context) []domain.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Topic(nil), r.topics...)
}
