package identity

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"aurum/pkg/domain"
)

// claimPrefix is the message-signing domain separator. Prepending it keeps
// claim signatures from being replayed as signatures over other payloads.
const claimPrefix = "\x19aurum signed claim:\n"

func keccak(parts ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// ClaimID derives the claim identifier from issuer and topic. One active
// claim may exist per (issuer, topic) pair.
func ClaimID(issuer domain.Address, topic domain.Topic) string {
	return hex.EncodeToString(keccak(issuer[:], topicBytes(topic)))
}

// KeyID derives a key identifier from the holder address.
func KeyID(addr domain.Address) string {
	return hex.EncodeToString(keccak(addr[:]))
}

func topicBytes(topic domain.Topic) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(topic))
	return b[:]
}

// ClaimDigest is the signed payload: the prefixed hash of
// (claimID ∥ topic ∥ data). The structure is a wire contract; issuers sign
// exactly this.
func ClaimDigest(claimID string, topic domain.Topic, data []byte) []byte {
	inner := keccak([]byte(claimID), topicBytes(topic), data)
	return keccak([]byte(claimPrefix), inner)
}

// SignClaim produces a claim signature with the issuer's private key.
func SignClaim(priv ed25519.PrivateKey, claimID string, topic domain.Topic, data []byte) []byte {
	return ed25519.Sign(priv, ClaimDigest(claimID, topic, data))
}

// VerifyClaimSignature checks the signature against the given public key.
// Whether that key is *the right* key for the claim's issuer is decided by
// the caller (the verification procedure resolves it to the issuer identity's
// owner key, or to the issuer address for non-identity issuers).
func VerifyClaimSignature(signer ed25519.PublicKey, claimID string, topic domain.Topic, data, sig []byte) bool {
	if len(signer) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(signer, ClaimDigest(claimID, topic, data), sig)
}
