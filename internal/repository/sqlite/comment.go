package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/microblog/internal/domain"
)

// commentRepo implements domain.CommentRepository using SQLite.
type commentRepo struct {
	db *sql.DB
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username, c.content, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func (r *commentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, content, created_at) VALUES (?, ?, ?, ?)`,
		comment.PostID, comment.AuthorID, comment.Content, now,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get comment id: %w", err)
	}

	comment.ID = id
	comment.CreatedAt = now
	return nil
}

func (r *commentRepo) GetByID(ctx context.Context, postID, id int64) (*domain.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx,
		commentSelect+` WHERE c.id = ? AND c.post_id = ?`, id, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID int64, opts domain.ListOptions) ([]domain.Comment, error) {
	query := commentSelect + ` WHERE c.post_id = ?`
	args := []any{postID}
	if opts.Search != "" {
		query += ` AND c.content LIKE ? ESCAPE '\'`
		args = append(args, likePattern(opts.Search))
	}

	dir := "DESC"
	if opts.SortDirection == domain.SortAscending {
		dir = "ASC"
	}
	query += " ORDER BY c.created_at " + dir + ", c.id " + dir

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (r *commentRepo) Update(ctx context.Context, comment *domain.Comment) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = ? WHERE id = ? AND post_id = ?`,
		comment.Content, comment.ID, comment.PostID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *commentRepo) Delete(ctx context.Context, postID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ? AND post_id = ?", id, postID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanComment(s scanner) (*domain.Comment, error) {
	c := &domain.Comment{}
	if err := s.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}
