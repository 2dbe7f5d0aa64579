package domain

import (
	"errors"
	"time"
)

// User is a platform account: an elderly user, a guardian, a counselor, or an administrator.
type User struct {
	ID            string
	Email         string
	Name          string
	Phone         string // optional; used for SMS second factor
	PhoneVerified bool   // true after first successful OTP verification
	PasswordHash  string // bcrypt; never serialized to clients
	Role          Role
	MFARequired   bool // when true, login completes only after the SMS second factor
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Role classifies what a user is on the platform. It is bound into sessions
// and access credentials at login and is immutable for a session's lifetime.
type Role string

const (
	RoleElderly   Role = "ELDERLY"
	RoleGuardian  Role = "GUARDIAN"
	RoleCounselor Role = "COUNSELOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleElderly, RoleGuardian, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !u.Role.Valid() {
		return errors.New("unknown role")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
