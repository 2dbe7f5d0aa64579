package repository

import (
	"context"
	"time"

	"care-link-platform/backend/internal/mfa/domain"
)

// Repository defines persistence for MFA challenges.
type Repository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)
	Delete(ctx context.Context, id string) error
}

// DefaultChallengeTTL is the default OTP challenge expiry.
const DefaultChallengeTTL = 10 * time.Minute
