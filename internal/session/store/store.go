// Package store abstracts the shared key-value store that holds session state.
// All session state lives here, never in process memory: staleness in a local
// cache would defeat the single-active-session pointer mechanism.
package store

import (
	"context"
	"time"

	"care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

// Handoff is the payload of a one-time login hand-off slot, bridging
// primary-factor success and second-factor completion.
type Handoff struct {
	UserID string          `json:"user_id"`
	Role   userdomain.Role `json:"role"`
}

// Store is the session authority's view of the shared store. Absence is never
// an error: lookups return zero values for missing records and reserve the
// error return for store failures, so callers can't mistake an outage for
// an expired session.
type Store interface {
	// GetSession returns the session record, or nil if absent or expired.
	GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	// PutSession writes the full session record and applies ttl.
	PutSession(ctx context.Context, s *domain.Session, ttl time.Duration) error
	// DeleteSession removes the session record. Deleting an absent record is a no-op.
	DeleteSession(ctx context.Context, id domain.SessionID) error
	// SetRefreshSecretHash overwrites the single refresh-hash field, only if
	// the record still exists. Returns false if the session is gone.
	SetRefreshSecretHash(ctx context.Context, id domain.SessionID, hash string) (bool, error)
	// TouchSession updates last_seen and re-applies ttl, only if the record
	// still exists. Returns false if the session is gone.
	TouchSession(ctx context.Context, id domain.SessionID, lastSeen time.Time, ttl time.Duration) (bool, error)

	// GetPointer returns the user's current session ID, or "" if absent.
	GetPointer(ctx context.Context, userID string) (domain.SessionID, error)
	// SetPointer maps the user to a session ID and applies ttl.
	SetPointer(ctx context.Context, userID string, id domain.SessionID, ttl time.Duration) error
	// DeletePointer removes the user's pointer. Absent pointer is a no-op.
	DeletePointer(ctx context.Context, userID string) error
	// TouchPointer re-applies ttl to the pointer. Returns false if absent.
	TouchPointer(ctx context.Context, userID string, ttl time.Duration) (bool, error)

	// PutHandoff stores a one-time hand-off payload under token with ttl.
	PutHandoff(ctx context.Context, token string, h *Handoff, ttl time.Duration) error
	// TakeHandoff atomically consumes the hand-off for token. Returns nil if
	// absent, expired, or already consumed.
	TakeHandoff(ctx context.Context, token string) (*Handoff, error)
}
