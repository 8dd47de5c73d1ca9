package postgres

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/msomdec/microblog/internal/domain"
)

type revokedTokenRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func (r *revokedTokenRepo) Revoke(ctx context.Context, token *domain.RevokedToken) error {
	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now().UTC()
	}
	row := revokedTokenModel{
		JTI:       token.TokenID,
		UserID:    token.UserID,
		TokenType: string(token.TokenType),
		ExpiresAt: token.ExpiresAt.UTC(),
		RevokedAt: token.RevokedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTokenRevoked
		}
		return logError(r.logger, "token_revoke_failed", err, "jti", token.TokenID)
	}
	return nil
}

func (r *revokedTokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&revokedTokenModel{}).Where("jti = ?", tokenID).Count(&count).Error
	if err != nil {
		return false, logError(r.logger, "token_lookup_failed", err, "jti", tokenID)
	}
	return count > 0, nil
}

func (r *revokedTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before.UTC()).Delete(&revokedTokenModel{})
	if res.Error != nil {
		return 0, logError(r.logger, "token_purge_failed", res.Error)
	}
	return res.RowsAffected, nil
}
