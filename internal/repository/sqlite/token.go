package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/microblog/internal/domain"
)

// revokedTokenRepo implements domain.RevokedTokenRepository using SQLite.
type revokedTokenRepo struct {
	db *sql.DB
}

func (r *revokedTokenRepo) Revoke(ctx context.Context, token *domain.RevokedToken) error {
	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, user_id, token_type, expires_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token.TokenID, token.UserID, string(token.TokenType), token.ExpiresAt.UTC(), token.RevokedAt.UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrTokenRevoked
		}
		return fmt.Errorf("insert revoked token: %w", err)
	}
	return nil
}

func (r *revokedTokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM revoked_tokens WHERE jti = ?", tokenID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return true, nil
}

func (r *revokedTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired revoked tokens: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
