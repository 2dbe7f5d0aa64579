package security

import (
	"testing"

	sessiondomain "care-link-platform/backend/internal/session/domain"
)

func TestHashRefreshSecret_Consistent(t *testing.T) {
	secret := sessiondomain.RefreshSecret("test-refresh-secret-123")
	hash1 := HashRefreshSecret(secret)
	hash2 := HashRefreshSecret(secret)

	if hash1 != hash2 {
		t.Errorf("HashRefreshSecret not consistent: hash1 = %q, hash2 = %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
}

func TestHashRefreshSecret_DifferentSecrets(t *testing.T) {
	hash1 := HashRefreshSecret("secret-1")
	hash2 := HashRefreshSecret("secret-2")

	if hash1 == hash2 {
		t.Error("HashRefreshSecret produced same hash for different secrets")
	}
}

func TestRefreshSecretEqual_CorrectMatch(t *testing.T) {
	secret := sessiondomain.RefreshSecret("test-refresh-secret-456")
	storedHash := HashRefreshSecret(secret)

	if !RefreshSecretEqual(secret, storedHash) {
		t.Error("RefreshSecretEqual should match correct secret")
	}
}

func TestRefreshSecretEqual_RejectsIncorrect(t *testing.T) {
	storedHash := HashRefreshSecret("correct-secret")

	if RefreshSecretEqual("wrong-secret", storedHash) {
		t.Error("RefreshSecretEqual should reject incorrect secret")
	}
}

func TestRefreshSecretEqual_RejectsDifferentLengthHash(t *testing.T) {
	secret := sessiondomain.RefreshSecret("test-secret-789")
	storedHash := HashRefreshSecret(secret)

	if RefreshSecretEqual(secret, "a"+storedHash) {
		t.Error("RefreshSecretEqual should reject hash with different length")
	}
}

func TestRefreshSecretEqual_EmptyStoredHash(t *testing.T) {
	if RefreshSecretEqual("some-secret", "") {
		t.Error("RefreshSecretEqual should not match empty stored hash")
	}
}
