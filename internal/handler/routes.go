package handler

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/msomdec/microblog/internal/handler/docs"
	"github.com/msomdec/microblog/internal/service"
)

// Services are the dependencies the routes are served from. Limiter and
// the Swagger UI are optional.
type Services struct {
	Auth     *service.AuthService
	Posts    *service.PostService
	Comments *service.CommentService
	Users    *service.UserService
	DB       Pinger

	Limiter       *service.TokenBucket
	EnableSwagger bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s Services) {
	authH := NewAuthHandler(s.Auth)
	postH := NewPostHandler(s.Posts)
	commentH := NewCommentHandler(s.Comments)
	userH := NewUserHandler(s.Users)

	opt := func(h http.HandlerFunc) http.Handler { return OptionalAuth(s.Auth, h) }
	authed := func(h http.HandlerFunc) http.Handler { return RequireAuth(s.Auth, h) }
	limited := func(h http.HandlerFunc) http.Handler {
		if s.Limiter == nil {
			return h
		}
		return RateLimit(s.Limiter, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz(s.DB))
	if s.EnableSwagger {
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Auth
	mux.Handle("POST /api/register", limited(authH.HandleRegister))
	mux.Handle("POST /api/login", limited(authH.HandleLogin))
	mux.HandleFunc("GET /api/login", authH.HandleLoginHint)
	mux.Handle("POST /api/logout", authed(authH.HandleLogout))
	mux.HandleFunc("POST /api/token/refresh", authH.HandleRefresh)

	// Posts and likes
	mux.Handle("GET /api/posts", opt(postH.HandleList))
	mux.Handle("POST /api/posts", authed(postH.HandleCreate))
	mux.Handle("GET /api/posts/{id}", opt(postH.HandleGet))
	mux.Handle("PUT /api/posts/{id}", opt(postH.HandleUpdate))
	mux.Handle("PATCH /api/posts/{id}", opt(postH.HandleUpdate))
	mux.Handle("DELETE /api/posts/{id}", opt(postH.HandleDelete))
	mux.Handle("POST /api/posts/{id}/like", authed(postH.HandleToggleLike))
	mux.Handle("GET /api/posts/{id}/likes", opt(postH.HandleLikes))

	// Comments
	mux.Handle("GET /api/posts/{post_id}/comments", opt(commentH.HandleList))
	mux.Handle("POST /api/posts/{post_id}/comments", authed(commentH.HandleCreate))
	mux.Handle("GET /api/posts/{post_id}/comments/{id}", opt(commentH.HandleGet))
	mux.Handle("PUT /api/posts/{post_id}/comments/{id}", opt(commentH.HandleUpdate))
	mux.Handle("PATCH /api/posts/{post_id}/comments/{id}", opt(commentH.HandleUpdate))
	mux.Handle("DELETE /api/posts/{post_id}/comments/{id}", opt(commentH.HandleDelete))

	// Users
	mux.Handle("GET /api/users", opt(userH.HandleList))
	mux.Handle("GET /api/users/{id}", opt(userH.HandleGet))
	mux.Handle("PUT /api/users/{id}", opt(userH.HandleUpdate))
	mux.Handle("PATCH /api/users/{id}", opt(userH.HandleUpdate))
	mux.Handle("DELETE /api/users/{id}", opt(userH.HandleDeactivate))
}

// NewRouter returns the complete HTTP handler: routes plus the
// middleware every request passes through.
func NewRouter(s Services, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, s)
	return SecurityHeaders(RequestLogger(logger, TrimTrailingSlash(mux)))
}
