package domain

import (
	"context"
	"time"
)

// Post is a microblog entry. AuthorUsername, CommentCount and LikeCount
// are filled on read and never stored.
type Post struct {
	ID             int64
	AuthorID       int64
	AuthorUsername string
	Title          string
	Content        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CommentCount   int
	LikeCount      int
}

// PostRepository defines persistence operations for posts and their like set.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, opts ListOptions) ([]Post, error)
	// Update persists title and content and bumps UpdatedAt.
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id int64) error
	// ToggleLike adds the user to the post's like set when absent and
	// removes it when present. It reports whether the like was added.
	ToggleLike(ctx context.Context, postID, userID int64) (bool, error)
	ListLikers(ctx context.Context, postID int64) ([]string, error)
}
