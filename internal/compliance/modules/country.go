// Package modules ships the reference compliance modules. The country
// modules read the counterparty's jurisdiction through the identity registry
// back-reference. Allow and deny lists compose by conjunction: a deny entry
// overrides an allow entry for the same jurisdiction.
package modules

import (
	"context"
	"sync"

	"aurum/internal/compliance"
	"aurum/pkg/domain"
)

// CountryReader is the identity-registry back-reference the country modules
// resolve jurisdictions through.
type CountryReader interface {
	InvestorCountry(ctx context.Context, wallet domain.Address) (domain.CountryCode, error)
}

// CountryAllowModule passes transfers only when the recipient's country is on
// the allow list. Stateless: lifecycle notifications are no-ops.
type CountryAllowModule struct {
	compliance.NoopLifecycle
	mu        sync.RWMutex
	countries map[domain.CountryCode]struct{}
	registry  CountryReader
}

func NewCountryAllow(registry CountryReader, allowed ...domain.CountryCode) *CountryAllowModule {
	m := &CountryAllowModule{
		countries: make(map[domain.CountryCode]struct{}),
		registry:  registry,
	}
	for _, c := range allowed {
		m.countries[c] = struct{}{}
	}
	return m
}

func (m *CountryAllowModule) Name() string { return "country_allow" }

func (m *CountryAllowModule) CanBind(context.Context, domain.TokenID) bool {
	return m.registry != nil
}

// Allow adds a country to the allow list.
func (m *CountryAllowModule) Allow(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countries[country] = struct{}{}
}

// Disallow removes a country from the allow list.
func (m *CountryAllowModule) Disallow(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.countries, country)
}

func (m *CountryAllowModule) Check(ctx context.Context, _, to domain.Address, _ uint64) (bool, string) {
	country, err := m.registry.InvestorCountry(ctx, to)
	if err != nil {
		return false, "recipient country unknown"
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.countries[country]; !ok {
		return false, "recipient country not on allow list"
	}
	return true, ""
}

// CountryDenyModule rejects transfers when the recipient's country is on the
// deny list. Stateless.
type CountryDenyModule struct {
	compliance.NoopLifecycle
	mu        sync.RWMutex
	countries map[domain.CountryCode]struct{}
	registry  CountryReader
}

func NewCountryDeny(registry CountryReader, denied ...domain.CountryCode) *CountryDenyModule {
	m := &CountryDenyModule{
		countries: make(map[domain.CountryCode]struct{}),
		registry:  registry,
	}
	for _, c := range denied {
		m.countries[c] = struct{}{}
	}
	return m
}

func (m *CountryDenyModule) Name() string { return "country_deny" }

func (m *CountryDenyModule) CanBind(context.Context, domain.TokenID) bool {
	return m.registry != nil
}

// Deny adds a country to the deny list.
func (m *CountryDenyModule) Deny(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countries[country] = struct{}{}
}

// Undeny removes a country from the deny list.
func (m *CountryDenyModule) Undeny(country domain.CountryCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.countries, country)
}

func (m *CountryDenyModule) Check(ctx context.Context, _, to domain.Address, _ uint64) (bool, string) {
	country, err := m.registry.InvestorCountry(ctx, to)
	if err != nil {
		return false, "recipient country unknown"
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.countries[country]; ok {
		return false, "recipient country is deny-listed"
	}
	return true, ""
}
