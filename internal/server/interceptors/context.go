package interceptors

import (
	"context"

	sessiondomain "care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	roleKey      = contextKey{"role"}
	sessionIDKey = contextKey{"session_id"}
)

// WithIdentity returns a context carrying the authenticated identity.
// Handlers and the authorization layer read it via GetUserID, GetRole,
// GetSessionID.
func WithIdentity(ctx context.Context, userID string, role userdomain.Role, sessionID sessiondomain.SessionID) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetRole returns the authenticated role from context and true if set.
func GetRole(ctx context.Context) (userdomain.Role, bool) {
	v, ok := ctx.Value(roleKey).(userdomain.Role)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set.
func GetSessionID(ctx context.Context) (sessiondomain.SessionID, bool) {
	v, ok := ctx.Value(sessionIDKey).(sessiondomain.SessionID)
	return v, ok
}
