package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deens-academy/timetable-api/internal/models"
)

// AccountRepository handles persistence of accounts and refresh tokens.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByEmail returns an account by its email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const query = `SELECT id, email, password_hash, role, active, last_login, created_at, updated_at
        FROM accounts WHERE email = $1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByID returns an account by its ID.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT id, email, password_hash, role, active, last_login, created_at, updated_at
        FROM accounts WHERE id = $1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// Create persists a new account.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	const query = `INSERT INTO accounts (id, email, password_hash, role, active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Delete removes an account row. Used to compensate a failed teacher
// registration, mirroring the auth-user cleanup of the sign-up flow.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Deactivate flags an account inactive.
func (r *AccountRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE accounts SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE accounts SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token session.
func (r *AccountRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	const query = `INSERT INTO refresh_tokens (id, account_id, token, expires_at, created_at, revoked)
        VALUES (:id, :account_id, :token, :expires_at, :created_at, :revoked)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by its opaque value.
func (r *AccountRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, account_id, token, expires_at, created_at, revoked, revoked_at
        FROM refresh_tokens WHERE token = $1`
	var stored models.RefreshToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RevokeRefreshToken marks a refresh token revoked.
func (r *AccountRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAccountRefreshTokens revokes every live session of an account.
func (r *AccountRepository) RevokeAccountRefreshTokens(ctx context.Context, accountID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE account_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, accountID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke account refresh tokens: %w", err)
	}
	return nil
}
