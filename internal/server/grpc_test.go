package server

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	authservice "care-link-platform/backend/internal/auth/service"
	"care-link-platform/backend/internal/security"
	"care-link-platform/backend/internal/session/authority"
	"care-link-platform/backend/internal/session/store"
)

func TestNew_MinimalDeps(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	sessions := authority.New(store.NewMemoryStore(), nil, authority.Config{})
	s := New(Deps{Tokens: tokens, Sessions: sessions})
	if s == nil {
		t.Fatal("New returned nil server")
	}
	if _, ok := s.GetServiceInfo()["grpc.health.v1.Health"]; !ok {
		t.Error("health service should be registered")
	}
	s.Stop()
}

func TestNew_FullDeps(t *testing.T) {
	tokens := security.NewTestTokenProvider()
	sessions := authority.New(store.NewMemoryStore(), nil, authority.Config{})
	auth := authservice.NewAuthService(nil, nil, nil, sessions, security.NewHasher(bcrypt.MinCost), tokens)
	s := New(Deps{
		Tokens:      tokens,
		Sessions:    sessions,
		Auth:        auth,
		SkipMethods: map[string]bool{"/grpc.health.v1.Health/Check": true},
	})
	if s == nil {
		t.Fatal("New returned nil server")
	}
	s.Stop()
}
