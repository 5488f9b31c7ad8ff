// Package instruments tracks the token instruments this process serves and
// resolves them for transport and orchestration layers.
package instruments

import (
	"sync"

	"aurum/internal/compliance"
	"aurum/internal/dividend"
	"aurum/internal/redemption"
	"aurum/internal/token"
	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
)

// Instrument pairs a token ledger with its bound compliance instance.
type Instrument struct {
	Token      *token.Service
	Compliance *compliance.ModularCompliance
}

// Registry resolves instruments by token ID.
type Registry struct {
	mu   sync.RWMutex
	byID map[domain.TokenID]Instrument
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[domain.TokenID]Instrument)}
}

// Add registers an instrument. Fails if the token ID is taken.
func (r *Registry) Add(inst Instrument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := inst.Token.ID()
	if _, ok := r.byID[id]; ok {
		return derrors.Newf(derrors.CodeConflict, "token %s already registered", id)
	}
	r.byID[id] = inst
	return nil
}

// Get returns the instrument for the token ID.
func (r *Registry) Get(id domain.TokenID) (Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byID[id]
	if !ok {
		return Instrument{}, derrors.Newf(derrors.CodeNotFound, "token %s is not known", id)
	}
	return inst, nil
}

// Token satisfies the redemption orchestrator's resolver.
func (r *Registry) Token(id domain.TokenID) (redemption.Ledger, error) {
	inst, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return inst.Token, nil
}

// Snapshotter satisfies the dividend service's resolver.
func (r *Registry) Snapshotter(id domain.TokenID) (dividend.Snapshotter, error) {
	inst, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return inst.Token, nil
}
