// Package authz enforces who may do what: coarse role guards for handlers
// plus a Rego policy engine for relationship-based access decisions.
package authz

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"care-link-platform/backend/internal/server/interceptors"
	userdomain "care-link-platform/backend/internal/user/domain"
)

// RequireAuthenticated ensures the request gate committed an identity.
// Returns (userID, role, nil) on success; a gRPC Unauthenticated error otherwise.
func RequireAuthenticated(ctx context.Context) (string, userdomain.Role, error) {
	userID, okUser := interceptors.GetUserID(ctx)
	role, okRole := interceptors.GetRole(ctx)
	if !okUser || userID == "" || !okRole {
		return "", "", status.Error(codes.Unauthenticated, "authentication required")
	}
	return userID, role, nil
}

// RequireRole ensures the caller is authenticated and holds one of the
// allowed roles. Returns (userID, role, nil) on success; a gRPC error
// (Unauthenticated or PermissionDenied) on failure.
func RequireRole(ctx context.Context, allowed ...userdomain.Role) (string, userdomain.Role, error) {
	userID, role, err := RequireAuthenticated(ctx)
	if err != nil {
		return "", "", err
	}
	for _, r := range allowed {
		if role == r {
			return userID, role, nil
		}
	}
	return "", "", status.Error(codes.PermissionDenied, "insufficient role")
}

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin(ctx context.Context) (string, error) {
	userID, _, err := RequireRole(ctx, userdomain.RoleAdmin)
	return userID, err
}

// RequireStaff ensures the caller is a counselor or an admin.
func RequireStaff(ctx context.Context) (string, userdomain.Role, error) {
	return RequireRole(ctx, userdomain.RoleCounselor, userdomain.RoleAdmin)
}
