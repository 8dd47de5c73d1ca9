package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/msomdec/microblog/internal/domain"
)

type userRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	row := userModel{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsActive:     user.IsActive,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUsername
		}
		return logError(r.logger, "user_create_failed", err, "username", user.Username)
	}

	user.ID = row.ID
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, logError(r.logger, "user_get_failed", err)
	}
	return row.toEntity(), nil
}

func (r *userRepo) List(ctx context.Context) ([]domain.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, logError(r.logger, "user_list_failed", err)
	}
	users := make([]domain.User, len(rows))
	for i, row := range rows {
		users[i] = *row.toEntity()
	}
	return users, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"username":      user.Username,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"is_active":     user.IsActive,
			"is_admin":      user.IsAdmin,
			"updated_at":    now,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrDuplicateUsername
		}
		return logError(r.logger, "user_update_failed", res.Error, "user_id", user.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	user.UpdatedAt = now
	return nil
}
