package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for check-in tokens
	"encoding/hex"  // hex encoding for token strings and digests
)

// NewCheckInToken returns a cryptographically secure random token string.
// The raw value is handed to the organizer for QR rendering and is never
// persisted; only its SHA-256 digest is stored.  48 random bytes yield a
// 96 character hex string.
func NewCheckInToken() (string, error) {
	return randomHex(48)
}

// HashTokenRaw returns the SHA-256 hash of the raw token as a hex
// string.  Storing only the hash prevents attackers from using stolen
// database rows to check in.
func HashTokenRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
