package interceptors

import (
	"context"
	"errors"
	"log"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"care-link-platform/backend/internal/security"
	"care-link-platform/backend/internal/session/authority"
)

const bearerPrefix = "bearer "

// AuthUnary returns a unary server interceptor that authenticates requests.
// It extracts the bearer credential from the authorization metadata, verifies
// it, confirms the embedded session is still the user's live current session,
// renews the session's idle TTL, and commits the identity into the context.
//
// Absent or failing credentials do not abort the request: the request
// proceeds unauthenticated and the authorization layer decides whether that is
// acceptable for the target method. Credential verification happens before
// any store lookup, so forged or expired tokens are rejected without a round
// trip. A store outage, by contrast, is never downgraded: it aborts the
// request rather than quietly treating the session as gone.
func AuthUnary(tokens *security.TokenProvider, sessions *authority.Authority) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		if token == "" {
			return handler(ctx, req)
		}

		id, err := tokens.Verify(token)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				log.Printf("auth: expired credential on %s", info.FullMethod)
			} else {
				log.Printf("auth: rejected credential on %s: %v", info.FullMethod, err)
			}
			return handler(ctx, req)
		}

		active, err := sessions.IsActive(ctx, id.SessionID, id.UserID)
		if err != nil {
			log.Printf("auth: session store failure on %s: %v", info.FullMethod, err)
			return nil, status.Error(codes.Unavailable, "session store unavailable")
		}
		if !active {
			return handler(ctx, req)
		}

		if err := sessions.Touch(ctx, id.SessionID); err != nil {
			log.Printf("auth: session store failure on %s: %v", info.FullMethod, err)
			return nil, status.Error(codes.Unavailable, "session store unavailable")
		}

		ctx = WithIdentity(ctx, id.UserID, id.Role, id.SessionID)
		return handler(ctx, req)
	}
}

// extractBearer returns the bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
