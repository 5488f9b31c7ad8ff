// Package models defines the wallet-to-identity binding kept by the identity
// registry. Balances are identity-scoped: every wallet bound to the same
// identity shares one ledger entry.
package models

import (
	"time"

	"aurum/pkg/domain"
)

// Binding ties a wallet address to an Identity plus ancillary attributes.
// A wallet is registered at most once; many wallets may share one identity.
type Binding struct {
	Wallet       domain.Address
	Identity     domain.IdentityID
	Country      domain.CountryCode
	RegisteredAt time.Time
}
