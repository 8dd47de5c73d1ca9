package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/msomdec/microblog/internal/domain"
)

type postRepo struct {
	db     *gorm.DB
	logger *slog.Logger
}

const postColumns = `p.id, p.author_id, u.username AS author_username, p.title, p.content,
	p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
	(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_count`

func (r *postRepo) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts AS p").
		Select(postColumns).
		Joins("JOIN users u ON u.id = p.author_id")
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	row := postModel{
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Content:   post.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return logError(r.logger, "post_create_failed", err, "author_id", post.AuthorID)
	}

	post.ID = row.ID
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	var rows []postRow
	if err := r.query(ctx).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, logError(r.logger, "post_get_failed", err, "post_id", id)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toEntity(), nil
}

func (r *postRepo) List(ctx context.Context, opts domain.ListOptions) ([]domain.Post, error) {
	tx := r.query(ctx)
	if opts.Search != "" {
		pattern := likePattern(opts.Search)
		tx = tx.Where("(p.title ILIKE ? OR p.content ILIKE ?)", pattern, pattern)
	}
	if opts.Author != "" {
		tx = tx.Where("u.username = ?", opts.Author)
	}

	var rows []postRow
	if err := tx.Order(postOrder(opts)).Scan(&rows).Error; err != nil {
		return nil, logError(r.logger, "post_list_failed", err)
	}
	posts := make([]domain.Post, len(rows))
	for i, row := range rows {
		posts[i] = *row.toEntity()
	}
	return posts, nil
}

func (r *postRepo) Update(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&postModel{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"title":      post.Title,
			"content":    post.Content,
			"updated_at": now,
		})
	if res.Error != nil {
		return logError(r.logger, "post_update_failed", res.Error, "post_id", post.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&postModel{})
	if res.Error != nil {
		return logError(r.logger, "post_delete_failed", res.Error, "post_id", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleLike locks the post row so concurrent toggles on the same post
// serialize instead of racing between the delete and the insert.
func (r *postRepo) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post postModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", postID).
			First(&post).
			Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&likeModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		like := likeModel{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&like).
			Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, domain.ErrNotFound
		}
		return false, logError(r.logger, "post_toggle_like_failed", err, "post_id", postID, "user_id", userID)
	}
	return liked, nil
}

func (r *postRepo) ListLikers(ctx context.Context, postID int64) ([]string, error) {
	usernames := []string{}
	err := r.db.WithContext(ctx).
		Table("post_likes AS l").
		Joins("JOIN users u ON u.id = l.user_id").
		Where("l.post_id = ?", postID).
		Order("u.username ASC").
		Pluck("u.username", &usernames).
		Error
	if err != nil {
		return nil, logError(r.logger, "post_list_likers_failed", err, "post_id", postID)
	}
	return usernames, nil
}

// postOrder maps list options onto a fixed set of ORDER BY clauses.
func postOrder(opts domain.ListOptions) string {
	dir := direction(opts.SortDirection)
	switch opts.OrderKey() {
	case domain.SortTitle:
		return "p.title " + dir + ", p.id " + dir
	default:
		return "p.created_at " + dir + ", p.id " + dir
	}
}
