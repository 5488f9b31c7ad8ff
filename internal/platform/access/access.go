// Package access implements the explicit capability checks that replace
// implicit caller identity: every mutating operation receives an acting
// address and is checked against the component's owner and agent set.
package access

import (
	"sync"

	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
)

// Controller holds one component's owner and agents.
type Controller struct {
	mu     sync.RWMutex
	owner  domain.Address
	agents map[domain.Address]struct{}
}

// NewController creates a controller owned by the given address. The owner is
// always treated as an agent.
func NewController(owner domain.Address) *Controller {
	return &Controller{
		owner:  owner,
		agents: make(map[domain.Address]struct{}),
	}
}

// Owner returns the controlling address.
func (c *Controller) Owner() domain.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// RequireOwner fails unless actor is the owner.
func (c *Controller) RequireOwner(actor domain.Address) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if actor != c.owner {
		return derrors.New(derrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// RequireAgent fails unless actor is the owner or a registered agent.
func (c *Controller) RequireAgent(actor domain.Address) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if actor == c.owner {
		return nil
	}
	if _, ok := c.agents[actor]; !ok {
		return derrors.New(derrors.CodeUnauthorized, "caller is not an agent")
	}
	return nil
}

// IsAgent reports whether actor holds agent capability.
func (c *Controller) IsAgent(actor domain.Address) bool {
	return c.RequireAgent(actor) == nil
}

// AddAgent grants agent capability. Owner-gated; re-granting fails.
func (c *Controller) AddAgent(actor, agent domain.Address) error {
	if err := c.RequireOwner(actor); err != nil {
		return err
	}
	if agent.IsZero() {
		return derrors.New(derrors.CodeInvalidInput, "agent address must not be zero")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.agents[agent]; ok {
		return derrors.New(derrors.CodeConflict, "address is already an agent")
	}
	c.agents[agent] = struct{}{}
	return nil
}

// RemoveAgent revokes agent capability. Owner-gated; removing a non-agent fails.
func (c *Controller) RemoveAgent(actor, agent domain.Address) error {
	if err := c.RequireOwner(actor); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.agents[agent]; !ok {
		return derrors.New(derrors.CodeNotFound, "address is not an agent")
	}
	delete(c.agents, agent)
	return nil
}
