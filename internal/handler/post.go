package handler

import (
	"net/http"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/policy"
	"github.com/msomdec/microblog/internal/service"
)

// PostHandler serves posts and their likes.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type postRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (p postRequest) changes() service.PostChanges {
	return service.PostChanges{Title: p.Title, Content: p.Content}
}

// HandleList godoc
// @Summary List posts
// @Tags posts
// @Produce json
// @Param search query string false "Case-insensitive match on title or content"
// @Param author query string false "Author username"
// @Param ordering query string false "created_at, title; prefix with - for descending"
// @Success 200 {array} PostDTO
// @Router /posts [get]
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := domain.ListOptions{
		Search: q.Get("search"),
		Author: q.Get("author"),
	}
	if key, dir, ok := domain.ParseOrdering(q.Get("ordering"), domain.SortCreatedAt, domain.SortTitle); ok {
		opts.SortKey, opts.SortDirection = key, dir
	}

	posts, err := h.posts.List(r.Context(), opts)
	if err != nil {
		respondError(w, err, "list posts")
		return
	}
	writeJSON(w, http.StatusOK, toPostDTOs(posts))
}

// HandleCreate godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body postRequest true "Post"
// @Success 201 {object} PostDTO
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /posts [post]
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), UserFromContext(r.Context()), req.changes())
	if err != nil {
		respondError(w, err, "create post")
		return
	}
	writeJSON(w, http.StatusCreated, toPostDTO(post))
}

// HandleGet godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostDTO
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [get]
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "get post")
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "get post")
		return
	}
	writeJSON(w, http.StatusOK, toPostDTO(post))
}

// HandleUpdate godoc
// @Summary Update a post
// @Description PUT replaces title and content; PATCH changes only the given fields. Author or administrator only.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param body body postRequest true "Post fields"
// @Success 200 {object} PostDTO
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [put]
// @Router /posts/{id} [patch]
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "update post")
		return
	}
	actor := UserFromContext(r.Context())
	if _, err := h.posts.Authorize(r.Context(), actor, id, policy.Update); err != nil {
		respondError(w, err, "update post")
		return
	}
	var req postRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	partial := r.Method == http.MethodPatch
	post, err := h.posts.Update(r.Context(), actor, id, req.changes(), partial)
	if err != nil {
		respondError(w, err, "update post")
		return
	}
	writeJSON(w, http.StatusOK, toPostDTO(post))
}

// HandleDelete godoc
// @Summary Delete a post
// @Description Also removes the post's comments and likes. Author or administrator only.
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [delete]
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "delete post")
		return
	}

	if err := h.posts.Delete(r.Context(), UserFromContext(r.Context()), id); err != nil {
		respondError(w, err, "delete post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleLike godoc
// @Summary Like or unlike a post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} LikeToggleResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id}/like [post]
func (h *PostHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "toggle like")
		return
	}

	liked, count, err := h.posts.ToggleLike(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err, "toggle like")
		return
	}

	detail := "Post unliked."
	if liked {
		detail = "Post liked."
	}
	writeJSON(w, http.StatusOK, LikeToggleResponse{Detail: detail, Liked: liked, NumberOfLikes: count})
}

// HandleLikes godoc
// @Summary List who likes a post
// @Tags likes
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} LikesResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id}/likes [get]
func (h *PostHandler) HandleLikes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "list likes")
		return
	}

	users, err := h.posts.Likers(r.Context(), id)
	if err != nil {
		respondError(w, err, "list likes")
		return
	}
	writeJSON(w, http.StatusOK, LikesResponse{Count: len(users), Users: users})
}
