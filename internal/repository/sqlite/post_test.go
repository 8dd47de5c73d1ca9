package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/msomdec/microblog/internal/domain"
)

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	p := seedPost(t, db, alice, "Hello", "World")
	if p.ID == 0 || p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Fatalf("expected server-set fields, got %+v", p)
	}

	found, err := db.Posts().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.AuthorUsername != "alice" {
		t.Fatalf("expected author alice, got %q", found.AuthorUsername)
	}
	if found.Title != "Hello" || found.Content != "World" {
		t.Fatalf("unexpected post: %+v", found)
	}
	if found.CommentCount != 0 || found.LikeCount != 0 {
		t.Fatalf("expected zero counts, got comments=%d likes=%d", found.CommentCount, found.LikeCount)
	}
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Posts().GetByID(context.Background(), 123); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_List_DefaultOrderNewestFirst(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")

	first := seedPost(t, db, alice, "first", "a")
	second := seedPost(t, db, alice, "second", "b")
	third := seedPost(t, db, alice, "third", "c")

	posts, err := db.Posts().List(context.Background(), domain.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].ID != third.ID || posts[1].ID != second.ID || posts[2].ID != first.ID {
		t.Fatalf("expected newest first, got ids %d,%d,%d", posts[0].ID, posts[1].ID, posts[2].ID)
	}
}

func TestPostRepository_List_SearchAuthorOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	seedPost(t, db, alice, "Banana bread", "recipe")
	seedPost(t, db, alice, "apple pie", "another RECIPE")
	seedPost(t, db, bob, "Cherry", "nothing to see")
	seedPost(t, db, bob, "100% juice", "fresh")

	posts, err := db.Posts().List(ctx, domain.ListOptions{Search: "recipe"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts matching recipe (case-insensitive), got %d", len(posts))
	}

	posts, err = db.Posts().List(ctx, domain.ListOptions{Search: "%"})
	if err != nil {
		t.Fatalf("List wildcard search: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "100% juice" {
		t.Fatalf("expected literal %% match only, got %+v", posts)
	}

	posts, err = db.Posts().List(ctx, domain.ListOptions{Author: "bob", SortKey: domain.SortTitle, SortDirection: domain.SortAscending})
	if err != nil {
		t.Fatalf("List author: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "100% juice" || posts[1].Title != "Cherry" {
		t.Fatalf("unexpected author-filtered ordering: %+v", posts)
	}

	posts, err = db.Posts().List(ctx, domain.ListOptions{SortKey: domain.SortTitle, SortDirection: domain.SortDescending})
	if err != nil {
		t.Fatalf("List title desc: %v", err)
	}
	if posts[0].Title != "apple pie" {
		t.Fatalf("expected apple pie first in binary descending order, got %q", posts[0].Title)
	}
}

func TestPostRepository_UpdateBumpsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	p := seedPost(t, db, alice, "old", "old")
	created := p.CreatedAt
	prevUpdated := p.UpdatedAt

	p.Title = "new"
	if err := db.Posts().Update(ctx, p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.UpdatedAt.Before(prevUpdated) {
		t.Fatal("expected UpdatedAt not to move backwards")
	}

	found, err := db.Posts().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Title != "new" {
		t.Fatalf("expected title new, got %q", found.Title)
	}
	if !found.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed: %v -> %v", created, found.CreatedAt)
	}

	if err := db.Posts().Update(ctx, &domain.Post{ID: 999, Title: "x", Content: "y"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	p := seedPost(t, db, alice, "t", "c")

	if err := db.Comments().Create(ctx, &domain.Comment{PostID: p.ID, AuthorID: alice.ID, Content: "hi"}); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := db.Posts().ToggleLike(ctx, p.ID, alice.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	if err := db.Posts().Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Posts().Delete(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	var comments, likes int
	if err := db.SqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&comments); err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if err := db.SqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM post_likes").Scan(&likes); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if comments != 0 || likes != 0 {
		t.Fatalf("expected cascade, got comments=%d likes=%d", comments, likes)
	}
}

func TestPostRepository_ToggleLike(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	p := seedPost(t, db, alice, "t", "c")

	liked, err := db.Posts().ToggleLike(ctx, p.ID, bob.ID)
	if err != nil || !liked {
		t.Fatalf("first toggle: liked=%v err=%v", liked, err)
	}
	if _, err := db.Posts().ToggleLike(ctx, p.ID, alice.ID); err != nil {
		t.Fatalf("alice toggle: %v", err)
	}

	found, _ := db.Posts().GetByID(ctx, p.ID)
	if found.LikeCount != 2 {
		t.Fatalf("expected 2 likes, got %d", found.LikeCount)
	}

	likers, err := db.Posts().ListLikers(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListLikers: %v", err)
	}
	if len(likers) != 2 || likers[0] != "alice" || likers[1] != "bob" {
		t.Fatalf("unexpected likers: %v", likers)
	}

	liked, err = db.Posts().ToggleLike(ctx, p.ID, bob.ID)
	if err != nil || liked {
		t.Fatalf("second toggle: liked=%v err=%v", liked, err)
	}

	found, _ = db.Posts().GetByID(ctx, p.ID)
	if found.LikeCount != 1 {
		t.Fatalf("expected 1 like, got %d", found.LikeCount)
	}

	if _, err := db.Posts().ToggleLike(ctx, 4242, bob.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestPostRepository_ToggleLikeConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := seedUser(t, db, "author")
	p := seedPost(t, db, author, "t", "c")

	const likers = 20
	users := make([]*domain.User, likers)
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("user%02d", i))
	}

	// Each liker toggles once; the author toggles an even number of times.
	const authorToggles = 10
	var wg sync.WaitGroup
	errs := make(chan error, likers+authorToggles)
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Posts().ToggleLike(ctx, p.ID, u.ID)
			errs <- err
		}()
	}
	for range authorToggles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Posts().ToggleLike(ctx, p.ID, author.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ToggleLike: %v", err)
		}
	}

	found, err := db.Posts().GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.LikeCount != likers {
		t.Fatalf("expected %d likes, got %d", likers, found.LikeCount)
	}
	names, err := db.Posts().ListLikers(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListLikers: %v", err)
	}
	if slices.Contains(names, "author") {
		t.Fatalf("author toggled an even number of times and must not be a liker: %v", names)
	}
}
