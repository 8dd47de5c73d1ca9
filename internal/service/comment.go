package service

import (
	"context"
	"fmt"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/policy"
)

// CommentService handles comments scoped to a parent post.
type CommentService struct {
	comments domain.CommentRepository
	posts    domain.PostRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments domain.CommentRepository, posts domain.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// List returns the post's comments. A search term suppresses any
// requested ordering and the default newest-first order applies.
func (s *CommentService) List(ctx context.Context, postID int64, opts domain.ListOptions) ([]domain.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	opts.Author = ""
	if opts.Search != "" || opts.OrderKey() != domain.SortCreatedAt {
		opts.SortKey = ""
		opts.SortDirection = domain.SortDescending
	}
	return s.comments.ListByPost(ctx, postID, opts)
}

// GetByID returns a comment of the given post.
func (s *CommentService) GetByID(ctx context.Context, postID, id int64) (*domain.Comment, error) {
	return s.comments.GetByID(ctx, postID, id)
}

// Create adds a comment by actor to the post. Author and post come from
// the actor and the path, never from client input.
func (s *CommentService) Create(ctx context.Context, actor *domain.User, postID int64, content *string) (*domain.Comment, error) {
	if err := policy.Authorize(policy.Create, policy.Comment, actor, 0); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if err := validateComment(content); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:         postID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Content:        *content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Update replaces the comment's content. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, actor *domain.User, postID, id int64, content *string) (*domain.Comment, error) {
	existing, err := s.Authorize(ctx, actor, postID, id, policy.Update)
	if err != nil {
		return nil, err
	}
	if err := validateComment(content); err != nil {
		return nil, err
	}

	existing.Content = *content
	if err := s.comments.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return existing, nil
}

// Delete removes the comment. Only the author may delete.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, postID, id int64) error {
	if _, err := s.Authorize(ctx, actor, postID, id, policy.Delete); err != nil {
		return err
	}
	return s.comments.Delete(ctx, postID, id)
}

// Authorize checks authentication, resolves the comment within its post,
// then checks ownership. Handlers call it before reading a request body.
func (s *CommentService) Authorize(ctx context.Context, actor *domain.User, postID, id int64, op policy.Operation) (*domain.Comment, error) {
	if err := policy.Authenticated(actor); err != nil {
		return nil, err
	}
	existing, err := s.comments.GetByID(ctx, postID, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(op, policy.Comment, actor, existing.AuthorID); err != nil {
		return nil, err
	}
	return existing, nil
}

func validateComment(content *string) error {
	v := &domain.ValidationError{}
	validateText(v, "content", content, false, 0)
	return v.Err()
}
