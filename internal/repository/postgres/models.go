package postgres

import (
	"strings"
	"time"

	"github.com/msomdec/microblog/internal/domain"
)

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string    `gorm:"column:username;size:150;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	IsAdmin      bool      `gorm:"column:is_admin;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

func (m userModel) toEntity() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type postModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AuthorID  int64     `gorm:"column:author_id;not null;index"`
	Author    userModel `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Title     string    `gorm:"column:title;size:200;not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (postModel) TableName() string {
	return "posts"
}

type commentModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PostID    int64     `gorm:"column:post_id;not null;index"`
	Post      postModel `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  int64     `gorm:"column:author_id;not null"`
	Author    userModel `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (commentModel) TableName() string {
	return "comments"
}

type likeModel struct {
	PostID    int64     `gorm:"column:post_id;primaryKey;autoIncrement:false"`
	Post      postModel `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	User      userModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (likeModel) TableName() string {
	return "post_likes"
}

type revokedTokenModel struct {
	JTI       string    `gorm:"column:jti;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null"`
	TokenType string    `gorm:"column:token_type;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	RevokedAt time.Time `gorm:"column:revoked_at;not null"`
}

func (revokedTokenModel) TableName() string {
	return "revoked_tokens"
}

// postRow is the read shape of a post: the row joined with its author
// and the derived counts.
type postRow struct {
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

func (r postRow) toEntity() *domain.Post {
	return &domain.Post{
		ID:             r.ID,
		AuthorID:       r.AuthorID,
		AuthorUsername: r.AuthorUsername,
		Title:          r.Title,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		CommentCount:   r.CommentCount,
		LikeCount:      r.LikeCount,
	}
}

type commentRow struct {
	ID             int64
	PostID         int64
	AuthorID       int64
	AuthorUsername string
	Content        string
	CreatedAt      time.Time
}

func (r commentRow) toEntity() *domain.Comment {
	return &domain.Comment{
		ID:             r.ID,
		PostID:         r.PostID,
		AuthorID:       r.AuthorID,
		AuthorUsername: r.AuthorUsername,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

// likePattern builds an ILIKE pattern matching term anywhere, with the
// wildcard characters in term escaped.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func direction(d domain.SortDirection) string {
	if d == domain.SortAscending {
		return "ASC"
	}
	return "DESC"
}
