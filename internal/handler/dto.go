package handler

import (
	"time"

	"github.com/msomdec/microblog/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func toUserDTOs(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	return dtos
}

// PostDTO is the JSON representation of a post. Author is the author's
// username; the counts are derived on read.
type PostDTO struct {
	ID               int64  `json:"id"`
	Author           string `json:"author"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	NumberOfComments int    `json:"number_of_comments"`
	NumberOfLikes    int    `json:"number_of_likes"`
}

func toPostDTO(p *domain.Post) PostDTO {
	return PostDTO{
		ID:               p.ID,
		Author:           p.AuthorUsername,
		Title:            p.Title,
		Content:          p.Content,
		CreatedAt:        formatTime(p.CreatedAt),
		UpdatedAt:        formatTime(p.UpdatedAt),
		NumberOfComments: p.CommentCount,
		NumberOfLikes:    p.LikeCount,
	}
}

func toPostDTOs(posts []domain.Post) []PostDTO {
	dtos := make([]PostDTO, len(posts))
	for i := range posts {
		dtos[i] = toPostDTO(&posts[i])
	}
	return dtos
}

// CommentDTO is the JSON representation of a comment.
type CommentDTO struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	PostID    int64  `json:"post_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toCommentDTO(c *domain.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		Author:    c.AuthorUsername,
		PostID:    c.PostID,
		Content:   c.Content,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func toCommentDTOs(comments []domain.Comment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i := range comments {
		dtos[i] = toCommentDTO(&comments[i])
	}
	return dtos
}

// TokenPairResponse is returned by register and login.
type TokenPairResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
}

// AccessTokenResponse is returned by the refresh endpoint.
type AccessTokenResponse struct {
	Access string `json:"access"`
}

// LikeToggleResponse reports the caller's like state after a toggle.
type LikeToggleResponse struct {
	Detail        string `json:"detail"`
	Liked         bool   `json:"liked"`
	NumberOfLikes int    `json:"number_of_likes"`
}

// LikesResponse lists who likes a post.
type LikesResponse struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// LogoutErrorResponse is the body of a failed logout.
type LogoutErrorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
