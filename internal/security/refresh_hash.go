package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	sessiondomain "care-link-platform/backend/internal/session/domain"
)

// HashRefreshSecret returns a SHA-256 hash of the refresh secret, hex-encoded.
// Used for storing and comparing refresh secrets without storing the secret.
func HashRefreshSecret(secret sessiondomain.RefreshSecret) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// RefreshSecretEqual performs constant-time comparison of the presented
// secret's hash with the stored hash. Returns true only if they match.
func RefreshSecretEqual(presented sessiondomain.RefreshSecret, storedHash string) bool {
	presentedHash := HashRefreshSecret(presented)
	return subtle.ConstantTimeCompare([]byte(presentedHash), []byte(storedHash)) == 1
}
