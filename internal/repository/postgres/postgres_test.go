package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/repository/postgres"
)

// Verify that *postgres.DB implements domain.Database at compile time.
var _ domain.Database = (*postgres.DB)(nil)

// newTestDB connects to the database named by MICROBLOG_TEST_POSTGRES_DSN
// and empties every table. Tests skip when it is unset.
func newTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	dsn := os.Getenv("MICROBLOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MICROBLOG_TEST_POSTGRES_DSN not set")
	}

	db, err := postgres.Connect(dsn, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := db.Gorm.WithContext(ctx).
		Exec("TRUNCATE revoked_tokens, post_likes, comments, posts, users RESTART IDENTITY CASCADE").
		Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *postgres.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", PasswordHash: "hash", IsActive: true}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func TestPostgres_Users(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	dup := &domain.User{Username: "alice", PasswordHash: "x", IsActive: true}
	if err := db.Users().Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	got, err := db.Users().GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != alice.ID || !got.IsActive || got.IsAdmin {
		t.Fatalf("unexpected user: %+v", got)
	}

	got.IsActive = false
	if err := db.Users().Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = db.Users().GetByID(ctx, alice.ID)
	if got.IsActive {
		t.Fatal("expected user to be inactive after update")
	}

	if _, err := db.Users().GetByID(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_PostsCommentsLikes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post := &domain.Post{AuthorID: alice.ID, Title: "Hello 100%", Content: "first"}
	if err := db.Posts().Create(ctx, post); err != nil {
		t.Fatalf("Create post: %v", err)
	}
	other := &domain.Post{AuthorID: bob.ID, Title: "Another", Content: "second"}
	if err := db.Posts().Create(ctx, other); err != nil {
		t.Fatalf("Create post: %v", err)
	}

	found, err := db.Posts().List(ctx, domain.ListOptions{Search: "100%"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(found) != 1 || found[0].ID != post.ID {
		t.Fatalf("expected only the literal match, got %+v", found)
	}

	byTitle, err := db.Posts().List(ctx, domain.ListOptions{SortKey: domain.SortTitle, SortDirection: domain.SortAscending})
	if err != nil {
		t.Fatalf("List by title: %v", err)
	}
	if len(byTitle) != 2 || byTitle[0].Title != "Another" {
		t.Fatalf("expected title order, got %+v", byTitle)
	}

	comment := &domain.Comment{PostID: post.ID, AuthorID: bob.ID, Content: "nice"}
	if err := db.Comments().Create(ctx, comment); err != nil {
		t.Fatalf("Create comment: %v", err)
	}
	if _, err := db.Comments().GetByID(ctx, other.ID, comment.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected comment to be scoped to its post, got %v", err)
	}

	liked, err := db.Posts().ToggleLike(ctx, post.ID, bob.ID)
	if err != nil || !liked {
		t.Fatalf("ToggleLike: liked=%v err=%v", liked, err)
	}

	got, err := db.Posts().GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AuthorUsername != "alice" || got.CommentCount != 1 || got.LikeCount != 1 {
		t.Fatalf("unexpected derived fields: %+v", got)
	}

	likers, err := db.Posts().ListLikers(ctx, post.ID)
	if err != nil || len(likers) != 1 || likers[0] != "bob" {
		t.Fatalf("ListLikers: %v %v", likers, err)
	}

	liked, err = db.Posts().ToggleLike(ctx, post.ID, bob.ID)
	if err != nil || liked {
		t.Fatalf("second ToggleLike: liked=%v err=%v", liked, err)
	}
	if _, err := db.Posts().ToggleLike(ctx, 999, bob.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := db.Posts().Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Comments().GetByID(ctx, post.ID, comment.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected comment to cascade, got %v", err)
	}
}

func TestPostgres_ToggleLikeConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	post := &domain.Post{AuthorID: alice.ID, Title: "t", Content: "c"}
	if err := db.Posts().Create(ctx, post); err != nil {
		t.Fatalf("Create post: %v", err)
	}

	const toggles = 10
	errs := make(chan error, toggles)
	for range toggles {
		go func() {
			_, err := db.Posts().ToggleLike(ctx, post.ID, alice.ID)
			errs <- err
		}()
	}
	for range toggles {
		if err := <-errs; err != nil {
			t.Fatalf("ToggleLike: %v", err)
		}
	}

	got, err := db.Posts().GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LikeCount != 0 {
		t.Fatalf("an even number of toggles must leave the post unliked, got %d likes", got.LikeCount)
	}
}

func TestPostgres_RevokedTokens(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := db.RevokedTokens()

	old := &domain.RevokedToken{TokenID: "old", TokenType: domain.TokenTypeRefresh, ExpiresAt: time.Now().Add(-time.Hour)}
	live := &domain.RevokedToken{TokenID: "live", TokenType: domain.TokenTypeAccess, ExpiresAt: time.Now().Add(time.Hour)}
	for _, tok := range []*domain.RevokedToken{old, live} {
		if err := repo.Revoke(ctx, tok); err != nil {
			t.Fatalf("Revoke %s: %v", tok.TokenID, err)
		}
	}
	if err := repo.Revoke(ctx, &domain.RevokedToken{TokenID: "live", TokenType: domain.TokenTypeAccess, ExpiresAt: time.Now()}); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	n, err := repo.DeleteExpired(ctx, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}
	if revoked, _ := repo.IsRevoked(ctx, "live"); !revoked {
		t.Fatal("expected live token to stay revoked")
	}
	if revoked, _ := repo.IsRevoked(ctx, "old"); revoked {
		t.Fatal("expected old token to be purged")
	}
}
