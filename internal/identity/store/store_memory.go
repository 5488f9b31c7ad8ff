package store

import (
	"context"
	"sync"

	"aurum/internal/identity/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

// InMemoryStore keeps identity aggregates keyed by ID. Aggregates are cloned
// on the way in and out so staged service mutations never leak.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[domain.IdentityID]*models.Identity
	byOwner    map[domain.Address]domain.IdentityID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		identities: make(map[domain.IdentityID]*models.Identity),
		byOwner:    make(map[domain.Address]domain.IdentityID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.ID] = identity.Clone()
	s.byOwner[identity.Owner] = identity.ID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.IdentityID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return identity.Clone(), nil
}

func (s *InMemoryStore) GetByOwner(_ context.Context, owner domain.Address) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOwner[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.identities[id].Clone(), nil
}
