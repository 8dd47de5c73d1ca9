package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/microblog/internal/domain"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response except logout
// failures.
type ErrorResponse struct {
	Code   string              `json:"code"`
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// DetailResponse is a bare informational message.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends an ErrorResponse with the given status code.
func writeError(w http.ResponseWriter, status int, code, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Detail: detail})
}

// readJSON decodes the request body into dst. An empty body leaves dst
// untouched so that missing fields surface as validation errors.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decodeOrReject reads the body and answers 400 on malformed JSON.
// It reports whether the handler should continue.
func decodeOrReject(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := readJSON(w, r, dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body is too large.")
			return false
		}
		writeError(w, http.StatusBadRequest, "parse_error", "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// respondError maps a service error onto a response. Unexpected errors
// are logged under msg and reported as 500.
func respondError(w http.ResponseWriter, err error, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:   "invalid",
			Detail: verr.Error(),
			Errors: verr.Fields,
		})
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided.")
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTokenRevoked), errors.Is(err, domain.ErrUserInactive):
		writeError(w, http.StatusUnauthorized, "token_not_valid", capitalize(err.Error()))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "permission_denied", forbiddenDetail(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
	default:
		slog.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "error", "An unexpected error occurred.")
	}
}

// forbiddenDetail strips the sentinel prefix, leaving the policy message.
func forbiddenDetail(err error) string {
	detail := strings.TrimPrefix(err.Error(), domain.ErrForbidden.Error()+": ")
	if detail == domain.ErrForbidden.Error() {
		return "You do not have permission to perform this action."
	}
	return detail
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pathID parses a numeric path wildcard. Anything else cannot name a
// record and is reported as not found.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
