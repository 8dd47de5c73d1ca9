package service

import (
	"context"
	"fmt"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/policy"
)

// PostService handles post CRUD, likes, and the ownership rules around them.
type PostService struct {
	posts domain.PostRepository
}

// NewPostService creates a new PostService.
func NewPostService(posts domain.PostRepository) *PostService {
	return &PostService{posts: posts}
}

// PostChanges holds client-writable post fields. Nil means absent.
type PostChanges struct {
	Title   *string
	Content *string
}

// Create stores a new post authored by actor. The author always comes from
// the actor, never from client input.
func (s *PostService) Create(ctx context.Context, actor *domain.User, changes PostChanges) (*domain.Post, error) {
	if err := policy.Authorize(policy.Create, policy.Post, actor, 0); err != nil {
		return nil, err
	}
	if err := validatePost(changes, false); err != nil {
		return nil, err
	}

	post := &domain.Post{
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Title:          *changes.Title,
		Content:        *changes.Content,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// List returns posts matching opts. Anyone may list.
func (s *PostService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Post, error) {
	return s.posts.List(ctx, opts)
}

// GetByID returns a post by ID. Anyone may read.
func (s *PostService) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Update edits title and/or content. The post is resolved before the
// ownership check, so a missing post is reported as not found.
// With partial unset both fields are required.
func (s *PostService) Update(ctx context.Context, actor *domain.User, id int64, changes PostChanges, partial bool) (*domain.Post, error) {
	existing, err := s.Authorize(ctx, actor, id, policy.Update)
	if err != nil {
		return nil, err
	}
	if err := validatePost(changes, partial); err != nil {
		return nil, err
	}

	if changes.Title != nil {
		existing.Title = *changes.Title
	}
	if changes.Content != nil {
		existing.Content = *changes.Content
	}
	if err := s.posts.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return existing, nil
}

// Delete removes a post along with its comments and likes.
func (s *PostService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.Authorize(ctx, actor, id, policy.Delete); err != nil {
		return err
	}
	return s.posts.Delete(ctx, id)
}

// Authorize resolves the post and checks that actor may perform op on it.
// Handlers call it before reading a request body.
func (s *PostService) Authorize(ctx context.Context, actor *domain.User, id int64, op policy.Operation) (*domain.Post, error) {
	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(op, policy.Post, actor, existing.AuthorID); err != nil {
		return nil, err
	}
	return existing, nil
}

// ToggleLike flips actor's membership in the post's like set. It reports
// whether the like was added and the like count afterwards.
func (s *PostService) ToggleLike(ctx context.Context, actor *domain.User, id int64) (bool, int, error) {
	if err := policy.Authorize(policy.Toggle, policy.Like, actor, 0); err != nil {
		return false, 0, err
	}

	liked, err := s.posts.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		return false, 0, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return false, 0, err
	}
	return liked, post.LikeCount, nil
}

// Likers returns the usernames that like the post.
func (s *PostService) Likers(ctx context.Context, id int64) ([]string, error) {
	if _, err := s.posts.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.posts.ListLikers(ctx, id)
}

func validatePost(changes PostChanges, partial bool) error {
	v := &domain.ValidationError{}
	validateText(v, "title", changes.Title, partial, maxTitleLength)
	validateText(v, "content", changes.Content, partial, 0)
	return v.Err()
}
