package store

import (
	"context"
	"sync"

	"aurum/internal/identityregistry/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemoryStore keeps wallet bindings keyed by wallet address.
type InMemoryStore struct {
	mu       sync.RWMutex
	bindings map[domain.Address]models.Binding
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bindings: make(map[domain.Address]models.Binding)}
}

func (s *InMemoryStore) Save(_ context.Context, binding models.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[binding.Wallet] = binding
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, wallet domain.Address) (models.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[wallet]
	if !ok {
		return models.Binding{}, sentinel.ErrNotFound
	}
	return b, nil
}

func (s *InMemoryStore) Delete(_ context.Context, wallet domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[wallet]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bindings, wallet)
	return nil
}
