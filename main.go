// @title						Microblog API
// @version					1.0
// @description				Users, posts, comments and likes behind JWT authentication.
// @BasePath					/api
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/microblog/internal/config"
	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/handler"
	"github.com/msomdec/microblog/internal/repository/postgres"
	"github.com/msomdec/microblog/internal/repository/sqlite"
	"github.com/msomdec/microblog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "driver", cfg.DatabaseDriver)

	authService := service.NewAuthService(db.Users(), db.RevokedTokens(), cfg.JWTSecret, cfg.BcryptCost, service.TokenLifetimes{
		Access:  cfg.AccessTokenTTL,
		Refresh: cfg.RefreshTokenTTL,
	})
	postService := service.NewPostService(db.Posts())
	commentService := service.NewCommentService(db.Comments(), db.Posts())
	userService := service.NewUserService(db.Users())

	// Bootstrap administrator (idempotent).
	if cfg.HasAdmin() {
		admin, err := authService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			slog.Error("failed to ensure administrator", "username", cfg.AdminUsername, "error", err)
			os.Exit(1)
		}
		slog.Info("administrator ready", "user_id", admin.ID, "username", admin.Username)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go authService.RunRevocationJanitor(ctx, cfg.RevocationPurgeInterval)

	router := handler.NewRouter(handler.Services{
		Auth:          authService,
		Posts:         postService,
		Comments:      commentService,
		Users:         userService,
		DB:            db,
		Limiter:       service.NewTokenBucket(ctx, cfg.AuthRateLimit, cfg.AuthRateBurst),
		EnableSwagger: cfg.EnableSwagger,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openDatabase(cfg config.Config, logger *slog.Logger) (domain.Database, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
