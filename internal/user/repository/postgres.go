package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"care-link-platform/backend/internal/user/domain"
)

const (
	qUserCreate = `
INSERT INTO users (id, email, name, phone, phone_verified, password_hash, role, mfa_required, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	qUserGetByID = `
SELECT id, email, name, phone, phone_verified, password_hash, role, mfa_required, status, created_at, updated_at
FROM users
WHERE id = $1;
`
	qUserGetByEmail = `
SELECT id, email, name, phone, phone_verified, password_hash, role, mfa_required, status, created_at, updated_at
FROM users
WHERE email = $1;
`
	qUserUpdate = `
UPDATE users
SET email = $2, name = $3, phone = $4, phone_verified = $5, password_hash = $6,
    role = $7, mfa_required = $8, status = $9, updated_at = $10
WHERE id = $1;
`
	qUserSetPhoneVerified = `
UPDATE users SET phone_verified = TRUE, updated_at = $2 WHERE id = $1;
`
)

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository over the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user. The user must have ID set and pass Validate.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, qUserCreate,
		u.ID, u.Email, u.Name, u.Phone, u.PhoneVerified, u.PasswordHash,
		string(u.Role), u.MFARequired, string(u.Status), u.CreatedAt, u.UpdatedAt)
	return err
}

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, qUserGetByID, id))
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, qUserGetByEmail, email))
}

// Update overwrites the user's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, qUserUpdate,
		u.ID, u.Email, u.Name, u.Phone, u.PhoneVerified, u.PasswordHash,
		string(u.Role), u.MFARequired, string(u.Status), u.UpdatedAt)
	return err
}

// SetPhoneVerified marks the user's phone as verified.
func (r *PostgresRepository) SetPhoneVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, qUserSetPhoneVerified, id, time.Now().UTC())
	return err
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var role, status string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PhoneVerified, &u.PasswordHash,
		&role, &u.MFARequired, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	return &u, nil
}
