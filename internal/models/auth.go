package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIClient is a registered caller of this service (awarding bodies, the
// register service, internal tooling). Secrets are stored bcrypt-hashed.
type APIClient struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	SecretHash string    `db:"secret_hash" json:"-"`
	Scopes     string    `db:"scopes" json:"scopes"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TokenRequest holds client credentials for issuing an access token.
type TokenRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

// TokenResponse returns the issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims is the JWT payload for access tokens.
type JWTClaims struct {
	ClientID string `json:"client_id"`
	Scopes   string `json:"scopes"`
	jwt.RegisteredClaims
}

// Pagination describes list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
