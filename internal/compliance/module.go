// Package compliance owns the pluggable transfer-rule chain. A
// ModularCompliance instance is bound to exactly one token and aggregates its
// modules' predicates by conjunction: every module must independently pass.
package compliance

import (
	"context"

	"aurum/pkg/domain"
)

// Module is one pluggable compliance rule. Check is the yes/no transfer
// predicate; the lifecycle notifications fire after a ledger mutation commits
// so stateful modules can track positions. Stateless modules no-op them.
type Module interface {
	// Name identifies the module in audit events and duplicates checks.
	Name() string

	// CanBind reports whether the module accepts being bound to the given
	// token. Extensibility hook for modules needing preconditions.
	CanBind(ctx context.Context, token domain.TokenID) bool

	// Check is the transfer predicate. The returned reason describes the
	// denial; it is empty on pass.
	Check(ctx context.Context, from, to domain.Address, amount uint64) (bool, string)

	// Transferred notifies a committed transfer.
	Transferred(ctx context.Context, from, to domain.Address, amount uint64)
	// Created notifies committed mints.
	Created(ctx context.Context, to domain.Address, amount uint64)
	// Destroyed notifies committed burns.
	Destroyed(ctx context.Context, from domain.Address, amount uint64)
}

// NoopLifecycle can be embedded by stateless modules that only implement the
// predicate.
type NoopLifecycle struct{}

func (NoopLifecycle) Transferred(context.Context, domain.Address, domain.Address, uint64) {}
func (NoopLifecycle) Created(context.Context, domain.Address, uint64)                     {}
func (NoopLifecycle) Destroyed(context.Context, domain.Address, uint64)                   {}
