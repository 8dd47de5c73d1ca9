package postgres

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/msomdec/microblog/internal/domain"
)

type commentRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

func (r *commentRepo) query(ctx context.Context, postID int64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("comments AS c").
		Select("c.id, c.post_id, c.author_id, u.username AS author_username, c.content, c.created_at").
		Joins("JOIN users u ON u.id = c.author_id").
		Where("c.post_id = ?", postID)
}

func (r *commentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	row := commentModel{
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return logError(r.logger, "comment_create_failed", err, "post_id", comment.PostID)
	}

	comment.ID = row.ID
	comment.CreatedAt = row.CreatedAt
	return nil
}

func (r *commentRepo) GetByID(ctx context.Context, postID, id int64) (*domain.Comment, error) {
	var rows []commentRow
	if err := r.query(ctx, postID).Where("c.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, logError(r.logger, "comment_get_failed", err, "post_id", postID, "comment_id", id)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toEntity(), nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID int64, opts domain.ListOptions) ([]domain.Comment, error) {
	tx := r.query(ctx, postID)
	if opts.Search != "" {
		tx = tx.Where("c.content ILIKE ?", likePattern(opts.Search))
	}
	dir := direction(opts.SortDirection)

	var rows []commentRow
	if err := tx.Order("c.created_at " + dir + ", c.id " + dir).Scan(&rows).Error; err != nil {
		return nil, logError(r.logger, "comment_list_failed", err, "post_id", postID)
	}
	comments := make([]domain.Comment, len(rows))
	for i, row := range rows {
		comments[i] = *row.toEntity()
	}
	return comments, nil
}

func (r *commentRepo) Update(ctx context.Context, comment *domain.Comment) error {
	res := r.db.WithContext(ctx).Model(&commentModel{}).
		Where("id = ? AND post_id = ?", comment.ID, comment.PostID).
		Update("content", comment.Content)
	if res.Error != nil {
		return logError(r.logger, "comment_update_failed", res.Error, "comment_id", comment.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *commentRepo) Delete(ctx context.Context, postID, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND post_id = ?", id, postID).Delete(&commentModel{})
	if res.Error != nil {
		return logError(r.logger, "comment_delete_failed", res.Error, "comment_id", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
