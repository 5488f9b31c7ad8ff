// Package domain defines the typed identifiers shared across the tokenization
// core. IDs are UUID-backed named types so the compiler keeps identity, token,
// redemption, and asset handles from being mixed up; Parse* helpers validate
// inputs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	derrors "aurum/pkg/platform/errs"
)

// IdentityID identifies an on-ledger Identity record (not a wallet).
type IdentityID uuid.UUID

// TokenID identifies a security token instrument.
type TokenID uuid.UUID

// RedemptionID identifies one redemption workflow instance.
type RedemptionID uuid.UUID

// AssetID identifies a certified asset NFT.
type AssetID uuid.UUID

// SnapshotID identifies a balance snapshot taken for entitlement purposes.
type SnapshotID uuid.UUID

func NewIdentityID() IdentityID     { return IdentityID(uuid.New()) }
func NewTokenID() TokenID           { return TokenID(uuid.New()) }
func NewRedemptionID() RedemptionID { return RedemptionID(uuid.New()) }
func NewAssetID() AssetID           { return AssetID(uuid.New()) }
func NewSnapshotID() SnapshotID     { return SnapshotID(uuid.New()) }

func (id IdentityID) String() string   { return uuid.UUID(id).String() }
func (id TokenID) String() string      { return uuid.UUID(id).String() }
func (id RedemptionID) String() string { return uuid.UUID(id).String() }
func (id AssetID) String() string      { return uuid.UUID(id).String() }
func (id SnapshotID) String() string   { return uuid.UUID(id).String() }

func (id IdentityID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id TokenID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RedemptionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SnapshotID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, kind+" must not be empty")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, kind+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return u, nil
}

// ParseIdentityID validates and converts a string into an IdentityID.
func ParseIdentityID(raw string) (IdentityID, error) {
	u, err := parseUUID(raw, "identity id")
	return IdentityID(u), err
}

// ParseTokenID validates and converts a string into a TokenID.
func ParseTokenID(raw string) (TokenID, error) {
	u, err := parseUUID(raw, "token id")
	return TokenID(u), err
}

// ParseRedemptionID validates and converts a string into a RedemptionID.
func ParseRedemptionID(raw string) (RedemptionID, error) {
	u, err := parseUUID(raw, "redemption id")
	return RedemptionID(u), err
}

// ParseAssetID validates and converts a string into an AssetID.
func ParseAssetID(raw string) (AssetID, error) {
	u, err := parseUUID(raw, "asset id")
	return AssetID(u), err
}

// ParseSnapshotID validates and converts a string into a SnapshotID.
func ParseSnapshotID(raw string) (SnapshotID, error) {
	u, err := parseUUID(raw, "snapshot id")
	return SnapshotID(u), err
}
