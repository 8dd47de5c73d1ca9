package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/policy"
	"github.com/msomdec/microblog/internal/service"
)

func ptr[T any](v T) *T { return &v }

func newTestPostService(t *testing.T) (*service.PostService, *service.AuthService, *domain.User, *domain.User) {
	t.Helper()
	auth, db := newTestAuthService(t)
	alice, _ := register(t, auth, "alice")
	bob, _ := register(t, auth, "bob")
	return service.NewPostService(db.Posts()), auth, alice, bob
}

func createPost(t *testing.T, posts *service.PostService, actor *domain.User, title string) *domain.Post {
	t.Helper()
	post, err := posts.Create(context.Background(), actor, service.PostChanges{Title: ptr(title), Content: ptr("body")})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}

func TestPostService_Create_AuthorIsActor(t *testing.T) {
	posts, _, alice, _ := newTestPostService(t)
	ctx := context.Background()

	post := createPost(t, posts, alice, "Hi")
	if post.AuthorID != alice.ID || post.AuthorUsername != "alice" {
		t.Fatalf("expected author alice, got %d/%s", post.AuthorID, post.AuthorUsername)
	}

	got, err := posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AuthorUsername != "alice" || got.CommentCount != 0 || got.LikeCount != 0 {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestPostService_Create_Anonymous(t *testing.T) {
	posts, _, _, _ := newTestPostService(t)
	ctx := context.Background()

	_, err := posts.Create(ctx, nil, service.PostChanges{Title: ptr("x"), Content: ptr("y")})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	list, err := posts.List(ctx, domain.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no posts to be persisted, got %d", len(list))
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	posts, _, alice, _ := newTestPostService(t)
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		changes service.PostChanges
		field   string
	}{
		{"missing title", service.PostChanges{Content: ptr("c")}, "title"},
		{"blank content", service.PostChanges{Title: ptr("t"), Content: ptr("  ")}, "content"},
		{"title too long", service.PostChanges{Title: ptr(string(long)), Content: ptr("c")}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := posts.Create(context.Background(), alice, tt.changes)
			if _, ok := fieldErrors(t, err)[tt.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tt.field, err)
			}
		})
	}
}

func TestPostService_Update(t *testing.T) {
	posts, _, alice, bob := newTestPostService(t)
	ctx := context.Background()
	post := createPost(t, posts, alice, "Hi")

	if _, err := posts.Update(ctx, bob, post.ID, service.PostChanges{Title: ptr("Hacked")}, true); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if _, err := posts.Update(ctx, nil, post.ID, service.PostChanges{Title: ptr("Hacked")}, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous, got %v", err)
	}

	updated, err := posts.Update(ctx, alice, post.ID, service.PostChanges{Title: ptr("Hello")}, true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Hello" || updated.Content != "body" {
		t.Fatalf("unexpected post after partial update: %+v", updated)
	}
	if updated.AuthorID != alice.ID {
		t.Fatal("author must not change on update")
	}

	// A full update requires every field.
	if _, err := posts.Update(ctx, alice, post.ID, service.PostChanges{Title: ptr("Only title")}, false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for incomplete full update, got %v", err)
	}
}

func TestPostService_Update_NotFoundBeforeAuth(t *testing.T) {
	posts, _, _, _ := newTestPostService(t)

	_, err := posts.Update(context.Background(), nil, 999, service.PostChanges{Title: ptr("x")}, true)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostService_Delete(t *testing.T) {
	posts, _, alice, bob := newTestPostService(t)
	ctx := context.Background()
	post := createPost(t, posts, alice, "Hi")

	if err := posts.Delete(ctx, bob, post.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := posts.GetByID(ctx, post.ID); err != nil {
		t.Fatalf("post must survive forbidden delete: %v", err)
	}

	if err := posts.Delete(ctx, alice, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := posts.GetByID(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostService_AdminOverride(t *testing.T) {
	posts, auth, alice, _ := newTestPostService(t)
	ctx := context.Background()
	admin, err := auth.EnsureAdmin(ctx, "root", "", "pw")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	post := createPost(t, posts, alice, "Hi")

	if _, err := posts.Update(ctx, admin, post.ID, service.PostChanges{Content: ptr("moderated")}, true); err != nil {
		t.Fatalf("admin Update: %v", err)
	}
	if err := posts.Delete(ctx, admin, post.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	posts, _, alice, bob := newTestPostService(t)
	ctx := context.Background()
	post := createPost(t, posts, alice, "Hi")

	liked, count, err := posts.ToggleLike(ctx, bob, post.ID)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !liked || count != 1 {
		t.Fatalf("expected liked with count 1, got %v/%d", liked, count)
	}

	likers, err := posts.Likers(ctx, post.ID)
	if err != nil {
		t.Fatalf("Likers: %v", err)
	}
	if len(likers) != 1 || likers[0] != "bob" {
		t.Fatalf("expected [bob], got %v", likers)
	}

	liked, count, err = posts.ToggleLike(ctx, bob, post.ID)
	if err != nil {
		t.Fatalf("ToggleLike (again): %v", err)
	}
	if liked || count != 0 {
		t.Fatalf("expected unliked with count 0, got %v/%d", liked, count)
	}

	if _, _, err := posts.ToggleLike(ctx, nil, post.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous like, got %v", err)
	}
	if _, _, err := posts.ToggleLike(ctx, bob, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := posts.Likers(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for likers of missing post, got %v", err)
	}
}

func TestPostService_Authorize(t *testing.T) {
	posts, _, alice, bob := newTestPostService(t)
	ctx := context.Background()
	post := createPost(t, posts, alice, "Hi")

	got, err := posts.Authorize(ctx, alice, post.ID, policy.Update)
	if err != nil {
		t.Fatalf("Authorize author: %v", err)
	}
	if got.ID != post.ID {
		t.Fatalf("expected post %d, got %d", post.ID, got.ID)
	}

	if _, err := posts.Authorize(ctx, nil, post.ID, policy.Update); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := posts.Authorize(ctx, bob, post.ID, policy.Delete); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := posts.Authorize(ctx, nil, 999, policy.Update); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before the auth check, got %v", err)
	}
}
