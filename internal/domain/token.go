package domain

import (
	"context"
	"time"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPair is the short-lived access token and longer-lived refresh
// token issued at login and registration.
type TokenPair struct {
	Access  string
	Refresh string
}

// RevokedToken is an entry in the revocation set, keyed by the token's jti.
type RevokedToken struct {
	TokenID   string
	UserID    int64
	TokenType TokenType
	ExpiresAt time.Time
	RevokedAt time.Time
}

// RevokedTokenRepository is the shared, append-only revocation set.
type RevokedTokenRepository interface {
	// Revoke records the token. It returns ErrTokenRevoked when the
	// token identifier is already present.
	Revoke(ctx context.Context, token *RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// DeleteExpired purges entries whose token expired before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
