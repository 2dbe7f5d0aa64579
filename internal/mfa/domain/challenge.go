package domain

import "time"

// Challenge represents a pending OTP challenge for two-step login
// (stored in the mfa_challenges table). Only the code hash is stored.
type Challenge struct {
	ID        string
	UserID    string
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the challenge has passed its expiry at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
