package domain

import (
	"time"

	userdomain "care-link-platform/backend/internal/user/domain"
)

// Session is the store-resident record for one interactive login.
// UserID and Role are bound at issuance and never change; RefreshSecretHash is
// the only field mutated after creation (once per successful rotation).
type Session struct {
	ID                SessionID
	UserID            string
	Role              userdomain.Role
	RefreshSecretHash string // SHA-256 of the current refresh secret; the secret itself is never stored
	LastSeenAt        time.Time
	CreatedAt         time.Time
}
