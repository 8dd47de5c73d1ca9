package domain

import (
	"context"
	"time"
)

// Comment belongs to exactly one post. AuthorUsername is filled on read.
type Comment struct {
	ID             int64
	PostID         int64
	AuthorID       int64
	AuthorUsername string
	Content        string
	CreatedAt      time.Time
}

// CommentRepository defines persistence operations for comments.
// Lookups are scoped to the parent post.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, postID, id int64) (*Comment, error)
	ListByPost(ctx context.Context, postID int64, opts ListOptions) ([]Comment, error)
	Update(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, postID, id int64) error
}
