package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// HandleRegister godoc
// @Summary Register a user
// @Description Creates an account and returns a fresh access/refresh token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body registerRequest true "Registration payload"
// @Success 201 {object} TokenPairResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	user, pair, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		respondError(w, err, "register user")
		return
	}

	writeJSON(w, http.StatusCreated, TokenPairResponse{
		UserID:   user.ID,
		Username: user.Username,
		Access:   pair.Access,
		Refresh:  pair.Refresh,
	})
}

// HandleLogin godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} TokenPairResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeOrReject(w, r, &req) {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err, "login user")
		return
	}

	writeJSON(w, http.StatusOK, TokenPairResponse{
		UserID:   user.ID,
		Username: user.Username,
		Access:   pair.Access,
		Refresh:  pair.Refresh,
	})
}

// HandleLoginHint answers GET on the login route.
func (h *AuthHandler) HandleLoginHint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DetailResponse{Detail: "Use POST to log in."})
}

// HandleLogout godoc
// @Summary Log out
// @Description Revokes the given refresh token and the bearer access token.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body refreshRequest true "Refresh token to revoke"
// @Success 205 {object} DetailResponse
// @Failure 400 {object} LogoutErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, LogoutErrorResponse{Error: err.Error()})
		return
	}
	if req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, LogoutErrorResponse{Error: "refresh token is required"})
		return
	}

	err := h.auth.Logout(r.Context(), req.Refresh, accessTokenFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrTokenRevoked) {
			writeJSON(w, http.StatusBadRequest, LogoutErrorResponse{Error: capitalize(err.Error())})
			return
		}
		respondError(w, err, "logout")
		return
	}

	writeJSON(w, http.StatusResetContent, DetailResponse{Detail: "Logout successful."})
}

// HandleRefresh godoc
// @Summary Refresh the access token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body refreshRequest true "Refresh token"
// @Success 200 {object} AccessTokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /token/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		respondError(w, domain.NewValidationError("refresh", "This field is required."), "refresh token")
		return
	}

	access, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		respondError(w, err, "refresh token")
		return
	}
	writeJSON(w, http.StatusOK, AccessTokenResponse{Access: access})
}
