package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// Byte lengths of the random material behind session IDs and refresh secrets.
// Both encode to hex strings twice this length.
const (
	sessionIDBytes     = 16
	refreshSecretBytes = 32
)

var (
	// ErrInvalidSessionID is returned when a string does not parse as a session ID.
	ErrInvalidSessionID = errors.New("invalid session id")
	// ErrInvalidRefreshSecret is returned when a string does not parse as a refresh secret.
	ErrInvalidRefreshSecret = errors.New("invalid refresh secret")
)

// SessionID is an opaque, unguessable session identifier. The zero value is
// not a valid ID; use NewSessionID or ParseSessionID.
type SessionID string

// RefreshSecret is the opaque single-use-per-rotation value a client exchanges
// for a new access credential. Only its hash is ever persisted.
type RefreshSecret string

// NewSessionID returns a fresh session ID backed by 128 bits of crypto/rand.
func NewSessionID() (SessionID, error) {
	s, err := randomHex(sessionIDBytes)
	if err != nil {
		return "", err
	}
	return SessionID(s), nil
}

// NewRefreshSecret returns a fresh refresh secret backed by 256 bits of crypto/rand.
func NewRefreshSecret() (RefreshSecret, error) {
	s, err := randomHex(refreshSecretBytes)
	if err != nil {
		return "", err
	}
	return RefreshSecret(s), nil
}

// ParseSessionID validates a client-presented session ID string.
func ParseSessionID(s string) (SessionID, error) {
	if !validHex(s, sessionIDBytes*2) {
		return "", ErrInvalidSessionID
	}
	return SessionID(s), nil
}

// ParseRefreshSecret validates a client-presented refresh secret string.
func ParseRefreshSecret(s string) (RefreshSecret, error) {
	if !validHex(s, refreshSecretBytes*2) {
		return "", ErrInvalidRefreshSecret
	}
	return RefreshSecret(s), nil
}

func (id SessionID) String() string     { return string(id) }
func (rs RefreshSecret) String() string { return string(rs) }

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
