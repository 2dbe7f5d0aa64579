package authz

import (
	"context"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"care-link-platform/backend/internal/server/interceptors"
	sessiondomain "care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

func ctxWithRole(t *testing.T, userID string, role userdomain.Role) context.Context {
	t.Helper()
	sid, err := sessiondomain.NewSessionID()
	if err != nil {
		t.Fatalf("new session id: %v", err)
	}
	return interceptors.WithIdentity(context.Background(), userID, role, sid)
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("error is not a gRPC status: %v", err)
	}
	if st.Code() != code {
		t.Errorf("status code = %v, want %v", st.Code(), code)
	}
}

func TestRequireAuthenticated_Success(t *testing.T) {
	ctx := ctxWithRole(t, "user-1", userdomain.RoleElderly)
	userID, role, err := RequireAuthenticated(ctx)
	if err != nil {
		t.Fatalf("RequireAuthenticated: %v", err)
	}
	if userID != "user-1" || role != userdomain.RoleElderly {
		t.Errorf("got (%q, %q)", userID, role)
	}
}

func TestRequireAuthenticated_NoIdentity(t *testing.T) {
	_, _, err := RequireAuthenticated(context.Background())
	wantCode(t, err, codes.Unauthenticated)
}

func TestRequireRole_Allowed(t *testing.T) {
	ctx := ctxWithRole(t, "user-1", userdomain.RoleCounselor)
	userID, _, err := RequireRole(ctx, userdomain.RoleCounselor, userdomain.RoleAdmin)
	if err != nil {
		t.Fatalf("RequireRole: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q", userID)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	ctx := ctxWithRole(t, "user-1", userdomain.RoleGuardian)
	_, _, err := RequireRole(ctx, userdomain.RoleAdmin)
	wantCode(t, err, codes.PermissionDenied)
}

func TestRequireAdmin(t *testing.T) {
	if _, err := RequireAdmin(ctxWithRole(t, "admin-1", userdomain.RoleAdmin)); err != nil {
		t.Fatalf("RequireAdmin: %v", err)
	}
	_, err := RequireAdmin(ctxWithRole(t, "user-1", userdomain.RoleElderly))
	wantCode(t, err, codes.PermissionDenied)
}

func TestRequireStaff(t *testing.T) {
	for _, role := range []userdomain.Role{userdomain.RoleCounselor, userdomain.RoleAdmin} {
		if _, _, err := RequireStaff(ctxWithRole(t, "u", role)); err != nil {
			t.Errorf("RequireStaff(%s): %v", role, err)
		}
	}
	_, _, err := RequireStaff(ctxWithRole(t, "u", userdomain.RoleGuardian))
	wantCode(t, err, codes.PermissionDenied)
}
