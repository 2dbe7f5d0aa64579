package security

import "time"

// NewTestTokenProvider returns a TokenProvider with a fixed test key and short
// TTL, for use in unit tests across packages.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte("test-signing-key-0123456789abcdef"), "care-link-auth", "care-link-api", 15*time.Minute)
}
