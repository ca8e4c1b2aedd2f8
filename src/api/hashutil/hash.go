package hashutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Digest returns the hex-encoded SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaltedIdentifier mints an opaque reference for a private payload.
// The digest covers the payload, a caller-supplied context value, the
// current time and a fresh 16-byte salt, so two calls with the same
// input produce different identifiers. The salt is not retained, so
// the result cannot be re-verified against the payload later.
func SaltedIdentifier(data []byte, context uint64) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	combined := fmt.Sprintf("%s|%d|%d|%s", data, context, time.Now().UnixMilli(), hex.EncodeToString(salt))
	return Digest([]byte(combined)), nil
}

// Verify recomputes Digest(data) and compares. Only meaningful for
// plain digests, not for SaltedIdentifier outputs.
func Verify(data []byte, hash string) bool {
	return Digest(data) == hash
}
