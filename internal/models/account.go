package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccountRole represents the available roles.
type AccountRole string

const (
	RoleTeacher AccountRole = "TEACHER"
	RoleStudent AccountRole = "STUDENT"
)

// Account represents an authenticable identity stored in the accounts table.
type Account struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         AccountRole `db:"role" json:"role"`
	Active       bool        `db:"active" json:"active"`
	LastLogin    *time.Time  `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	AccountID string     `db:"account_id" json:"account_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID string      `json:"account_id"`
	Role      AccountRole `json:"role"`
	Email     string      `json:"email"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials for authenticating an account. Login
// accepts either the account email or a teacher login handle; a handle is
// resolved to its email before the password check.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued tokens and account info.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	Account      AccountInfo `json:"account"`
	IssuedAt     time.Time   `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  AccountRole `json:"role"`
}
