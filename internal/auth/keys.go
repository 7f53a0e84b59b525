package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey returns a SHA-256 hash of the key.
func HashKey(key string) string {
	key = strings.TrimSpace(key)

	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// IdempotencyKey derives a stable key from its parts, e.g.
// (applicationID, targetStatus, requestID) for a pipeline transition.
func IdempotencyKey(parts ...string) string {
	return HashKey(strings.Join(parts, ":"))
}
