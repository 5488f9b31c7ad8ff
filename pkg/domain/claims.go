package domain

import derrors "aurum/pkg/platform/errs"

// Topic classifies the subject of a claim. Values follow the reference
// numbering so externally issued claims keep their meaning.
type Topic uint

const (
	TopicKYC               Topic = 1
	TopicAML               Topic = 2
	TopicAccreditation     Topic = 3
	TopicResidency         Topic = 4
	TopicSourceOfFunds     Topic = 5
)

// Purpose tags what an identity key is allowed to do.
type Purpose uint8

const (
	// PurposeManagement keys administer the identity itself (keys, ownership).
	PurposeManagement Purpose = 1
	// PurposeAction keys act on behalf of the identity in external systems.
	PurposeAction Purpose = 2
	// PurposeClaim keys add and revoke claims on the identity.
	PurposeClaim Purpose = 3
)

func (p Purpose) String() string {
	switch p {
	case PurposeManagement:
		return "management"
	case PurposeAction:
		return "action"
	case PurposeClaim:
		return "claim"
	}
	return "unknown"
}

// KeyType records the cryptographic scheme of an identity key.
type KeyType uint8

const (
	KeyTypeEd25519 KeyType = 1
)

// CountryCode is a numeric ISO-3166 country code attached to a wallet binding.
type CountryCode uint16

// ParseCountryCode validates a numeric country code. Zero means "unset" and is
// rejected at the boundary; registered investors always carry a jurisdiction.
func ParseCountryCode(raw uint64) (CountryCode, error) {
	if raw == 0 || raw > 999 {
		return 0, derrors.New(derrors.CodeInvalidInput, "country code must be a 3-digit ISO-3166 numeric code")
	}
	return CountryCode(raw), nil
}
