package repository

import (
	"context"
	"database/sql"
	"errors"

	"care-link-platform/backend/internal/mfa/domain"
)

const (
	qChallengeCreate = `
INSERT INTO mfa_challenges (id, user_id, phone, code_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	qChallengeGet = `
SELECT id, user_id, phone, code_hash, expires_at, created_at
FROM mfa_challenges
WHERE id = $1;
`
	qChallengeDelete = `
DELETE FROM mfa_challenges WHERE id = $1;
`
)

// PostgresRepository persists MFA challenges in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an MFA challenge repository over the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the MFA challenge. The challenge must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx, qChallengeCreate,
		c.ID, c.UserID, c.Phone, c.CodeHash, c.ExpiresAt, c.CreatedAt)
	return err
}

// GetByID returns the MFA challenge for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.db.QueryRowContext(ctx, qChallengeGet, id).Scan(
		&c.ID, &c.UserID, &c.Phone, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the MFA challenge by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, qChallengeDelete, id)
	return err
}
