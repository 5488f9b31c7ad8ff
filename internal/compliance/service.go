package compliance

import (
	"context"
	"log/slog"
	"sync"

	"aurum/internal/compliance/metrics"
	"aurum/internal/platform/access"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	derrors "aurum/pkg/platform/errs"
)

// MaxModules bounds the module chain. Policy cap; the default mirrors the
// reference limit.
const MaxModules = 25

// Recorder is the audit sink.
type Recorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ModularCompliance aggregates an ordered module chain for one token.
type ModularCompliance struct {
	mu      sync.RWMutex
	token   domain.TokenID
	bound   bool
	modules []Module
	acl     *access.Controller
	audit   Recorder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the instance.
type Option func(*ModularCompliance)

// WithMetrics attaches compliance metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ModularCompliance) { c.metrics = m }
}

func New(owner domain.Address, recorder Recorder, logger *slog.Logger, opts ...Option) *ModularCompliance {
	c := &ModularCompliance{
		acl:    access.NewController(owner),
		audit:  recorder,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BindToken ties the instance to a token. One-time and irreversible: a
// compliance instance never serves a second instrument.
func (c *ModularCompliance) BindToken(ctx context.Context, actor domain.Address, token domain.TokenID) error {
	if err := c.acl.RequireOwner(actor); err != nil {
		return err
	}
	if token.IsNil() {
		return derrors.New(derrors.CodeInvalidInput, "token id must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		return derrors.New(derrors.CodeInvalidState, "compliance is already bound to a token")
	}
	c.token = token
	c.bound = true
	return c.audit.Emit(ctx, audit.Event{
		Action: audit.ActionComplianceBound,
		Actor:  actor,
		Token:  token,
	})
}

// Token returns the bound token (zero until bound).
func (c *ModularCompliance) Token() domain.TokenID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// AddModule appends a module to the chain. Refused when the module reports it
// cannot accept the binding, when it is already in the chain, or when the
// chain is full.
func (c *ModularCompliance) AddModule(ctx context.Context, actor domain.Address, module Module) error {
	if err := c.acl.RequireOwner(actor); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.modules {
		if m.Name() == module.Name() {
			return derrors.New(derrors.CodeConflict, "module is already bound")
		}
	}
	if len(c.modules) >= MaxModules {
		return derrors.New(derrors.CodeCapExceeded, "module chain is full")
	}
	if !module.CanBind(ctx, c.token) {
		return derrors.Newf(derrors.CodeInvalidState, "module %s refused the binding", module.Name())
	}
	c.modules = append(c.modules, module)
	return c.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionModuleAdded,
		Actor:   actor,
		Token:   c.token,
		Subject: module.Name(),
	})
}

// RemoveModule drops a module from the chain.
func (c *ModularCompliance) RemoveModule(ctx context.Context, actor domain.Address, name string) error {
	if err := c.acl.RequireOwner(actor); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.modules {
		if m.Name() == name {
			c.modules = append(c.modules[:i], c.modules[i+1:]...)
			return c.audit.Emit(ctx, audit.Event{
				Action:  audit.ActionModuleRemoved,
				Actor:   actor,
				Token:   c.token,
				Subject: name,
			})
		}
	}
	return derrors.New(derrors.CodeNotFound, "module is not bound")
}

// Modules returns the chain in binding order.
func (c *ModularCompliance) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.modules))
	for i, m := range c.modules {
		names[i] = m.Name()
	}
	return names
}

// CanTransfer is the aggregate predicate: true iff every bound module passes,
// evaluated in binding order with short-circuit on the first denial. An empty
// chain is vacuously compliant. Pure given fixed module state.
func (c *ModularCompliance) CanTransfer(ctx context.Context, from, to domain.Address, amount uint64) (bool, string) {
	c.mu.RLock()
	chain := append([]Module(nil), c.modules...)
	c.mu.RUnlock()

	for _, m := range chain {
		ok, reason := m.Check(ctx, from, to, amount)
		if !ok {
			c.metrics.IncCheck(m.Name(), "deny")
			return false, m.Name() + ": " + reason
		}
		c.metrics.IncCheck(m.Name(), "pass")
	}
	return true, ""
}

// Transferred broadcasts a committed transfer to every module in binding
// order. Non-blocking semantics: module state updates, never vetoes.
func (c *ModularCompliance) Transferred(ctx context.Context, from, to domain.Address, amount uint64) {
	for _, m := range c.snapshot() {
		m.Transferred(ctx, from, to, amount)
	}
}

// Created broadcasts a committed mint.
func (c *ModularCompliance) Created(ctx context.Context, to domain.Address, amount uint64) {
	for _, m := range c.snapshot() {
		m.Created(ctx, to, amount)
	}
}

// Destroyed broadcasts a committed burn.
func (c *ModularCompliance) Destroyed(ctx context.Context, from domain.Address, amount uint64) {
	for _, m := range c.snapshot() {
		m.Destroyed(ctx, from, amount)
	}
}

func (c *ModularCompliance) snapshot() []Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Module(nil), c.modules...)
}

// Access exposes the access controller for ownership checks in wiring code.
func (c *ModularCompliance) Access() *access.Controller { return c.acl }
