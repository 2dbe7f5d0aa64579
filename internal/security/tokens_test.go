package security

import (
	"testing"
	"time"

	sessiondomain "care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

func TestTokenProvider_MintAndVerify(t *testing.T) {
	p := NewTestTokenProvider()
	sid, err := sessiondomain.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}

	token, exp, err := p.Mint("u1", userdomain.RoleGuardian, sid, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if token == "" {
		t.Fatal("token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	id, err := p.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != "u1" || id.Role != userdomain.RoleGuardian || id.SessionID != sid {
		t.Errorf("Verify: got userID=%q role=%q sessionID=%q", id.UserID, id.Role, id.SessionID)
	}
}

func TestTokenProvider_VerifyInvalid(t *testing.T) {
	p := NewTestTokenProvider()
	if _, err := p.Verify("invalid-token"); err != ErrInvalidToken {
		t.Errorf("Verify invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyWrongKey(t *testing.T) {
	p := NewTestTokenProvider()
	other := NewTokenProvider([]byte("a-different-signing-key-material"), "care-link-auth", "care-link-api", 15*time.Minute)
	sid, err := sessiondomain.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := other.Mint("u1", userdomain.RoleElderly, sid, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := p.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify wrong key: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyTampered(t *testing.T) {
	p := NewTestTokenProvider()
	sid, err := sessiondomain.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := p.Mint("u1", userdomain.RoleAdmin, sid, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := p.Verify(tampered); err != ErrInvalidToken {
		t.Errorf("Verify tampered token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyExpired(t *testing.T) {
	p := NewTestTokenProvider()
	sid, err := sessiondomain.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := p.Mint("u1", userdomain.RoleCounselor, sid, time.Second)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	p.nowF = func() time.Time { return time.Now().UTC().Add(time.Minute) }
	if _, err := p.Verify(token); err != ErrTokenExpired {
		t.Errorf("Verify expired token: want ErrTokenExpired, got %v", err)
	}
}

func TestTokenProvider_VerifyWrongIssuer(t *testing.T) {
	p := NewTestTokenProvider()
	other := NewTokenProvider([]byte("test-signing-key-0123456789abcdef"), "someone-else", "care-link-api", 15*time.Minute)
	sid, err := sessiondomain.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := other.Mint("u1", userdomain.RoleElderly, sid, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := p.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify wrong issuer: want ErrInvalidToken, got %v", err)
	}
}
