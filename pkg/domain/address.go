package domain

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	derrors "aurum/pkg/platform/errs"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address is an opaque account handle: the trailing 20 bytes of the keccak256
// hash of an ed25519 public key. Wallets, issuers, and operators are all
// addressed this way; the identity registry maps addresses to Identity records.
type Address [AddressLength]byte

// ZeroAddress is the empty address. It is never a valid party to an operation.
var ZeroAddress Address

// AddressFromKey derives the address bound to an ed25519 public key.
func AddressFromKey(key ed25519.PublicKey) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(key)
	sum := h.Sum(nil)

	var addr Address
	copy(addr[:], sum[len(sum)-AddressLength:])
	return addr
}

// ParseAddress validates a 0x-prefixed hex address.
func ParseAddress(raw string) (Address, error) {
	s := strings.TrimPrefix(strings.ToLower(raw), "0x")
	if len(s) != AddressLength*2 {
		return ZeroAddress, derrors.New(derrors.CodeInvalidInput, "address must be 20 hex bytes")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, derrors.New(derrors.CodeInvalidInput, "address is not valid hex")
	}
	var addr Address
	copy(addr[:], b)
	if addr == ZeroAddress {
		return ZeroAddress, derrors.New(derrors.CodeInvalidInput, "address must not be zero")
	}
	return addr, nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }
