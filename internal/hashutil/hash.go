// hash.go -- Deterministic opaque identifier derivation.
//
// Downstream consumers (the report service) key their data on these digests,
// so the truncation lengths are part of the wire contract and must not change.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// ClassHash derives a 48-hex-character digest of a course id.
// Same input always yields the same output; the digest is one-way.
func ClassHash(courseID string) string {
	return digest(courseID)[:48]
}

// UIDHash derives a 32-hex-character digest of a fully-qualified user id
// (e.g. "https://accounts.google.com/<sub>").
func UIDHash(userID string) string {
	return digest(userID)[:32]
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
