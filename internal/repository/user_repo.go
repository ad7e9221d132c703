package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
        id, username, email, is_email_confirmed, email_confirmation_token,
        email_confirmation_token_expiry, email_confirmed_at,
        password_reset_token, password_reset_token_expiry,
        first_name, last_name, preferred_name, role, password_hash,
        is_deleted, is_active, created_at, updated_at
`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.IsEmailConfirmed, &u.EmailConfirmationToken,
		&u.EmailConfirmationTokenExpiry, &u.EmailConfirmedAt,
		&u.PasswordResetToken, &u.PasswordResetTokenExpiry,
		&u.FirstName, &u.LastName, &u.PreferredName, &u.Role, &u.PasswordHash,
		&u.IsDeleted, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user with a pending email confirmation token.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (
            id, username, email, is_email_confirmed, email_confirmation_token,
            email_confirmation_token_expiry, role, password_hash,
            is_deleted, is_active, created_at, updated_at
        )
        VALUES ($1, $2, $3, false, $4, $5, $6, $7, false, true, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return r.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.EmailConfirmationToken,
		u.EmailConfirmationTokenExpiry, u.Role, u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE email = $1 AND is_deleted = false`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE id = $1 AND is_deleted = false`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByConfirmationToken(ctx context.Context, token string) (*model.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE email_confirmation_token = $1 AND is_deleted = false`
	return scanUser(r.db.QueryRow(ctx, query, token))
}

func (r *UserRepository) FindByPasswordResetToken(ctx context.Context, token string) (*model.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE password_reset_token = $1 AND is_deleted = false`
	return scanUser(r.db.QueryRow(ctx, query, token))
}

// ConfirmEmail marks the account confirmed and clears the token pair.
func (r *UserRepository) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE users
        SET is_email_confirmed = true,
            email_confirmed_at = NOW(),
            email_confirmation_token = NULL,
            email_confirmation_token_expiry = NULL,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *UserRepository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	query := `
        UPDATE users
        SET password_reset_token = $2,
            password_reset_token_expiry = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, id, token, expiry)
	return err
}

// ResetPassword swaps the hash and clears the reset token pair.
func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
        UPDATE users
        SET password_hash = $2,
            password_reset_token = NULL,
            password_reset_token_expiry = NULL,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, id, passwordHash)
	return err
}

// DeleteUser removes the row. Used to compensate a failed registration,
// not for account deletion (which is a soft delete).
func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	query := `
        UPDATE users
        SET first_name = $2,
            last_name = $3,
            preferred_name = $4,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, u.ID, u.FirstName, u.LastName, u.PreferredName)
	return err
}
