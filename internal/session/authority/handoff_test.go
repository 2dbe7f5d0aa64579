package authority

import (
	"context"
	"errors"
	"testing"
	"time"

	userdomain "care-link-platform/backend/internal/user/domain"
)

func TestHandoffRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	token, err := a.IssueHandoff(ctx, "42", userdomain.RoleElderly)
	if err != nil {
		t.Fatalf("IssueHandoff: %v", err)
	}
	if token == "" {
		t.Fatal("empty handoff token")
	}

	userID, role, err := a.ConsumeHandoff(ctx, token)
	if err != nil {
		t.Fatalf("ConsumeHandoff: %v", err)
	}
	if userID != "42" || role != userdomain.RoleElderly {
		t.Fatalf("got userID=%q role=%q", userID, role)
	}
}

func TestHandoffSingleUse(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	token, err := a.IssueHandoff(ctx, "42", userdomain.RoleElderly)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.ConsumeHandoff(ctx, token); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.ConsumeHandoff(ctx, token); !errors.Is(err, ErrHandoffInvalid) {
		t.Fatalf("second consume: want ErrHandoffInvalid, got %v", err)
	}
}

func TestHandoffExpiry(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAuthority(t, PolicyKickOld)

	token, err := a.IssueHandoff(ctx, "42", userdomain.RoleElderly)
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(6 * time.Minute)
	if _, _, err := a.ConsumeHandoff(ctx, token); !errors.Is(err, ErrHandoffInvalid) {
		t.Fatalf("expired handoff: want ErrHandoffInvalid, got %v", err)
	}
}

func TestHandoffUnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	if _, _, err := a.ConsumeHandoff(ctx, "nope"); !errors.Is(err, ErrHandoffInvalid) {
		t.Fatalf("unknown token: want ErrHandoffInvalid, got %v", err)
	}
	if _, _, err := a.ConsumeHandoff(ctx, ""); !errors.Is(err, ErrHandoffInvalid) {
		t.Fatalf("empty token: want ErrHandoffInvalid, got %v", err)
	}
}
