package handler

import (
	"net/http"

	"github.com/msomdec/microblog/internal/policy"
	"github.com/msomdec/microblog/internal/service"
)

// UserHandler serves the user directory.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

// HandleList godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} UserDTO
// @Router /users [get]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

// HandleGet godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserDTO
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "get user")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdate godoc
// @Summary Update a user
// @Description Administrators only.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body userRequest true "User fields"
// @Success 200 {object} UserDTO
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
// @Router /users/{id} [patch]
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "update user")
		return
	}
	actor := UserFromContext(r.Context())
	if err := policy.Authorize(policy.Update, policy.User, actor, id); err != nil {
		respondError(w, err, "update user")
		return
	}
	var req userRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	changes := service.UserChanges{
		Username: req.Username,
		Email:    req.Email,
		IsActive: req.IsActive,
		IsAdmin:  req.IsAdmin,
	}
	user, err := h.users.Update(r.Context(), actor, id, changes, r.Method == http.MethodPatch)
	if err != nil {
		respondError(w, err, "update user")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleDeactivate godoc
// @Summary Deactivate a user
// @Description Administrators only. The account is disabled, never removed.
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err, "deactivate user")
		return
	}

	if err := h.users.Deactivate(r.Context(), UserFromContext(r.Context()), id); err != nil {
		respondError(w, err, "deactivate user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
