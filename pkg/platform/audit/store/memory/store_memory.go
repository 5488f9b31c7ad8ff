package memory

import (
	"context"
	"sync"

	"aurum/pkg/domain"
	audit "aurum/pkg/platform/audit"
)

// InMemoryStore keeps audit events per token. Used by unit tests and as the
// sink when no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.TokenID][]audit.Event
	global []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.TokenID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Token] = append(s.events[event.Token], event)
	s.global = append(s.global, event)
	return nil
}

// ListByToken returns events scoped to one instrument, in append order.
func (s *InMemoryStore) ListByToken(_ context.Context, token domain.TokenID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[token]...), nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.global...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[domain.TokenID][]audit.Event)
	s.global = nil
}
