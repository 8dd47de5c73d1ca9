package handler

import (
	"net/http"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/policy"
	"github.com/msomdec/microblog/internal/service"
)

// CommentHandler serves comments nested under a post.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Content *string `json:"content"`
}

// HandleList godoc
// @Summary List a post's comments
// @Description A search term takes precedence over ordering.
// @Tags comments
// @Produce json
// @Param post_id path int true "Post ID"
// @Param search query string false "Case-insensitive match on content"
// @Param ordering query string false "created_at or -created_at"
// @Success 200 {array} CommentDTO
// @Failure 404 {object} ErrorResponse
// @Router /posts/{post_id}/comments [get]
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "post_id")
	if err != nil {
		respondError(w, err, "list comments")
		return
	}

	q := r.URL.Query()
	opts := domain.ListOptions{Search: q.Get("search")}
	if key, dir, ok := domain.ParseOrdering(q.Get("ordering"), domain.SortCreatedAt); ok {
		opts.SortKey, opts.SortDirection = key, dir
	}

	comments, err := h.comments.List(r.Context(), postID, opts)
	if err != nil {
		respondError(w, err, "list comments")
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTOs(comments))
}

// HandleCreate godoc
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post_id path int true "Post ID"
// @Param body body commentRequest true "Comment"
// @Success 201 {object} CommentDTO
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{post_id}/comments [post]
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "post_id")
	if err != nil {
		respondError(w, err, "create comment")
		return
	}
	var req commentRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), UserFromContext(r.Context()), postID, req.Content)
	if err != nil {
		respondError(w, err, "create comment")
		return
	}
	writeJSON(w, http.StatusCreated, toCommentDTO(comment))
}

// HandleGet godoc
// @Summary Get a comment
// @Tags comments
// @Produce json
// @Param post_id path int true "Post ID"
// @Param id path int true "Comment ID"
// @Success 200 {object} CommentDTO
// @Failure 404 {object} ErrorResponse
// @Router /posts/{post_id}/comments/{id} [get]
func (h *CommentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	postID, id, err := commentPath(r)
	if err != nil {
		respondError(w, err, "get comment")
		return
	}

	comment, err := h.comments.GetByID(r.Context(), postID, id)
	if err != nil {
		respondError(w, err, "get comment")
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

// HandleUpdate godoc
// @Summary Edit a comment
// @Description Only the comment's author may edit it.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post_id path int true "Post ID"
// @Param id path int true "Comment ID"
// @Param body body commentRequest true "Comment"
// @Success 200 {object} CommentDTO
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{post_id}/comments/{id} [put]
// @Router /posts/{post_id}/comments/{id} [patch]
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	postID, id, err := commentPath(r)
	if err != nil {
		respondError(w, err, "update comment")
		return
	}
	actor := UserFromContext(r.Context())
	if _, err := h.comments.Authorize(r.Context(), actor, postID, id, policy.Update); err != nil {
		respondError(w, err, "update comment")
		return
	}
	var req commentRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), actor, postID, id, req.Content)
	if err != nil {
		respondError(w, err, "update comment")
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTO(comment))
}

// HandleDelete godoc
// @Summary Delete a comment
// @Description Only the comment's author may delete it.
// @Tags comments
// @Security BearerAuth
// @Param post_id path int true "Post ID"
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{post_id}/comments/{id} [delete]
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	postID, id, err := commentPath(r)
	if err != nil {
		respondError(w, err, "delete comment")
		return
	}

	if err := h.comments.Delete(r.Context(), UserFromContext(r.Context()), postID, id); err != nil {
		respondError(w, err, "delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func commentPath(r *http.Request) (postID, id int64, err error) {
	if postID, err = pathID(r, "post_id"); err != nil {
		return 0, 0, err
	}
	if id, err = pathID(r, "id"); err != nil {
		return 0, 0, err
	}
	return postID, id, nil
}
