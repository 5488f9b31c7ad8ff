// Package store holds redemption workflow state. The active flag per token
// is tracked independently of record status so exclusivity survives
// completed and cancelled history.
package store

import (
	"context"
	"sync"

	"aurum/internal/redemption/models"
	"aurum/pkg/domain"
	"aurum/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[domain.RedemptionID]models.Record
	bindings map[domain.TokenID]models.Binding
	active   map[domain.TokenID]domain.RedemptionID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[domain.RedemptionID]models.Record),
		bindings: make(map[domain.TokenID]models.Binding),
		active:   make(map[domain.TokenID]domain.RedemptionID),
	}
}

// SaveBinding registers the token's asset binding. One binding per token.
func (s *InMemoryStore) SaveBinding(_ context.Context, b models.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[b.Token]; ok {
		return sentinel.ErrConflict
	}
	s.bindings[b.Token] = b
	return nil
}

// Binding returns the token's asset binding.
func (s *InMemoryStore) Binding(_ context.Context, token domain.TokenID) (models.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[token]
	if !ok {
		return models.Binding{}, sentinel.ErrNotFound
	}
	return b, nil
}

// Save upserts a record.
func (s *InMemoryStore) Save(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// Get returns a record by ID.
func (s *InMemoryStore) Get(_ context.Context, id domain.RedemptionID) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return models.Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

// SetActive marks the token as having an in-flight redemption. Fails if one
// is already active.
func (s *InMemoryStore) SetActive(_ context.Context, token domain.TokenID, id domain.RedemptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[token]; ok {
		return sentinel.ErrConflict
	}
	s.active[token] = id
	return nil
}

// ClearActive removes the token's active flag.
func (s *InMemoryStore) ClearActive(_ context.Context, token domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, token)
	return nil
}

// Active returns the in-flight redemption ID for the token, if any.
func (s *InMemoryStore) Active(_ context.Context, token domain.TokenID) (domain.RedemptionID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[token]
	return id, ok, nil
}
