// Package models holds the on-ledger asset record backing redemptions.
package models

import (
	"time"

	"aurum/pkg/domain"
)

// Asset is one uniquely identified real-world asset and its current owner.
// Metadata carries descriptive key-value pairs (custodian reference, serial
// numbers) that never affect transfer semantics.
type Asset struct {
	ID       domain.AssetID
	Owner    domain.Address
	Metadata map[string]string
	MintedAt time.Time
}

// Clone returns a deep copy.
func (a Asset) Clone() Asset {
	out := a
	if a.Metadata != nil {
		out.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
