// Package models defines the Identity aggregate: an on-ledger account record
// holding purpose-tagged keys and topic-tagged claims, distinct from any
// wallet that may point at it.
package models

import (
	"crypto/ed25519"
	"time"

	"aurum/pkg/domain"
)

// Key is a capability entry on an identity. Unique by ID, which is derived
// from the key-holder address.
type Key struct {
	ID       string
	Address  domain.Address
	Purposes []domain.Purpose
	Type     domain.KeyType
}

// HasPurpose reports whether the key carries the given purpose.
func (k Key) HasPurpose(p domain.Purpose) bool {
	for _, kp := range k.Purposes {
		if kp == p {
			return true
		}
	}
	return false
}

// Claim is a signed, topic-tagged assertion about the identity, issued by
// another identity. Unique by ID = keccak(issuer, topic): one active claim
// per (issuer, topic) pair; re-adding replaces.
type Claim struct {
	ID        string
	Topic     domain.Topic
	Scheme    uint
	Issuer    domain.Address
	Signature []byte
	// SignerKey is the public key the signature verifies under. The claim is
	// only trusted if this key resolves to the issuer (see verification).
	SignerKey ed25519.PublicKey
	Data      []byte
	URI       string
	Revocable bool
	Revoked   bool
	AddedAt   time.Time
}

// Identity is the aggregate root. Claims keep registration order; keys are
// unordered but always include at least one MANAGEMENT key.
type Identity struct {
	ID         domain.IdentityID
	Owner      domain.Address
	OwnerKey   ed25519.PublicKey
	Keys       []Key
	Claims     []Claim
	DeployedAt time.Time
}

// KeyByAddress finds the key held by addr, if any.
func (i *Identity) KeyByAddress(addr domain.Address) (Key, bool) {
	for _, k := range i.Keys {
		if k.Address == addr {
			return k, true
		}
	}
	return Key{}, false
}

// HolderHasPurpose reports whether addr is the owner or holds a key with the
// given purpose. The owner always qualifies: the owning wallet can administer
// its identity without a separate key entry.
func (i *Identity) HolderHasPurpose(addr domain.Address, p domain.Purpose) bool {
	if addr == i.Owner {
		return true
	}
	k, ok := i.KeyByAddress(addr)
	if !ok {
		return false
	}
	if p != domain.PurposeManagement && k.HasPurpose(domain.PurposeManagement) {
		return true
	}
	return k.HasPurpose(p)
}

// ManagementKeyCount counts keys carrying the MANAGEMENT purpose.
func (i *Identity) ManagementKeyCount() int {
	n := 0
	for _, k := range i.Keys {
		if k.HasPurpose(domain.PurposeManagement) {
			n++
		}
	}
	return n
}

// ClaimByID finds a claim by its derived ID.
func (i *Identity) ClaimByID(id string) (Claim, bool) {
	for _, c := range i.Claims {
		if c.ID == id {
			return c, true
		}
	}
	return Claim{}, false
}

// ClaimsByTopic returns claims with the given topic in registration order.
func (i *Identity) ClaimsByTopic(topic domain.Topic) []Claim {
	var out []Claim
	for _, c := range i.Claims {
		if c.Topic == topic {
			out = append(out, c)
		}
	}
	return out
}

// Clone deep-copies the aggregate so callers can stage mutations without
// touching stored state until commit.
func (i *Identity) Clone() *Identity {
	cp := *i
	cp.Keys = append([]Key(nil), i.Keys...)
	cp.Claims = make([]Claim, len(i.Claims))
	for idx, c := range i.Claims {
		cc := c
		cc.Signature = append([]byte(nil), c.Signature...)
		cc.Data = append([]byte(nil), c.Data...)
		cc.SignerKey = append(ed25519.PublicKey(nil), c.SignerKey...)
		cp.Claims[idx] = cc
	}
	cp.OwnerKey = append(ed25519.PublicKey(nil), i.OwnerKey...)
	return &cp
}
