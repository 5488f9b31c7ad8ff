// Package models defines the redemption workflow records.
package models

import (
	"time"

	"aurum/pkg/domain"
)

// Status is the redemption lifecycle state. Records advance strictly
// Requested -> SharesLocked -> SharesBurned -> Completed; cancellation is
// possible only before the burn.
type Status string

const (
	StatusRequested    Status = "requested"
	StatusSharesLocked Status = "shares_locked"
	StatusSharesBurned Status = "shares_burned"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

// Terminal reports whether the record can advance no further.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Record is one redemption workflow instance.
type Record struct {
	ID          domain.RedemptionID
	Token       domain.TokenID
	Redeemer    domain.Address
	TotalShares uint64
	Asset       domain.AssetID
	Issuer      domain.Address
	Status      Status
	RequestedAt time.Time
	CompletedAt time.Time
}

// Binding ties a token instrument to its underlying asset and the issuer
// that custodies it. Registered once before redemptions can be requested.
type Binding struct {
	Token  domain.TokenID
	Asset  domain.AssetID
	Issuer domain.Address
}
