package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/repository/sqlite"
	"github.com/msomdec/microblog/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), db.RevokedTokens(), testJWTSecret, 4, service.TokenLifetimes{})
	return auth, db
}

func register(t *testing.T, auth *service.AuthService, username string) (*domain.User, domain.TokenPair) {
	t.Helper()
	user, pair, err := auth.Register(context.Background(), service.RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "p1",
		Password2: "p1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user, pair
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T: %v", err, err)
	}
	return verr.Fields
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, pair, err := auth.Register(ctx, service.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "p1", Password2: "p1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if !user.IsActive || user.IsAdmin {
		t.Fatalf("expected active non-admin user, got active=%v admin=%v", user.IsActive, user.IsAdmin)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens to be issued")
	}

	got, err := auth.Authenticate(ctx, pair.Access)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := auth.Register(ctx, service.RegisterInput{
		Username: "alice", Password: "p1", Password2: "p2",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	fields := fieldErrors(t, err)
	if msgs := fields[domain.NonFieldErrors]; len(msgs) != 1 || msgs[0] != "passwords do not match" {
		t.Fatalf("unexpected non-field errors: %v", fields)
	}

	if _, err := db.Users().GetByUsername(ctx, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no user to be created, got %v", err)
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	auth, _ := newTestAuthService(t)
	register(t, auth, "alice")

	_, _, err := auth.Register(context.Background(), service.RegisterInput{
		Username: "alice", Password: "p2", Password2: "p2",
	})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected duplicate to surface as a validation error, got %v", err)
	}
	if _, ok := fieldErrors(t, err)["username"]; !ok {
		t.Fatal("expected username field error")
	}
}

func TestAuthService_Register_FieldValidation(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, _, err := auth.Register(context.Background(), service.RegisterInput{
		Username: "bad name!", Email: "not-an-email",
	})
	fields := fieldErrors(t, err)
	for _, f := range []string{"username", "email", "password", "password2"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for field %q, got %v", f, fields)
		}
	}
}

func TestAuthService_Login(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	alice, _ := register(t, auth, "alice")

	user, pair, err := auth.Login(ctx, "alice", "p1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("expected user %d, got %d", alice.ID, user.ID)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected token pair")
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, auth, "alice")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "bob", "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := auth.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if msgs := fieldErrors(t, err)[domain.NonFieldErrors]; len(msgs) != 1 || msgs[0] != "invalid credentials" {
				t.Fatalf("unexpected messages: %v", msgs)
			}
		})
	}

	_, _, err := auth.Login(ctx, "", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing fields, got %v", err)
	}
}

func TestAuthService_Login_Inactive(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()
	alice, _ := register(t, auth, "alice")

	alice.IsActive = false
	if err := db.Users().Update(ctx, alice); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, _, err := auth.Login(ctx, "alice", "p1")
	if !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	alice, pair := register(t, auth, "alice")

	access, err := auth.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	user, err := auth.Authenticate(ctx, access)
	if err != nil {
		t.Fatalf("Authenticate refreshed token: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("expected user %d, got %d", alice.ID, user.ID)
	}

	if _, err := auth.Refresh(ctx, pair.Access); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected access token to be rejected as refresh, got %v", err)
	}
	if _, err := auth.Refresh(ctx, "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestAuthService_Authenticate_RejectsRefreshToken(t *testing.T) {
	auth, _ := newTestAuthService(t)
	_, pair := register(t, auth, "alice")

	if _, err := auth.Authenticate(context.Background(), pair.Refresh); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Authenticate_Expired(t *testing.T) {
	auth, _ := newTestAuthService(t)
	alice, _ := register(t, auth, "alice")

	past := time.Now().Add(-time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": "access",
		"jti":        "expired-token",
		"sub":        strconv.FormatInt(alice.ID, 10),
		"iat":        past.Add(-time.Minute).Unix(),
		"exp":        past.Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := auth.Authenticate(context.Background(), signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthService_Authenticate_WrongSecret(t *testing.T) {
	auth, _ := newTestAuthService(t)
	_, pair := register(t, auth, "alice")

	other := service.NewAuthService(nil, nil, "a-completely-different-secret-value!!", 4, service.TokenLifetimes{})
	if _, err := other.Authenticate(context.Background(), pair.Access); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	_, pair := register(t, auth, "alice")

	if err := auth.Logout(ctx, pair.Refresh, pair.Access); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := auth.Refresh(ctx, pair.Refresh); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected refresh after logout to fail with ErrTokenRevoked, got %v", err)
	}
	if _, err := auth.Authenticate(ctx, pair.Access); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected access after logout to fail with ErrTokenRevoked, got %v", err)
	}
	if err := auth.Logout(ctx, pair.Refresh, ""); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected second logout to fail with ErrTokenRevoked, got %v", err)
	}
}

func TestAuthService_Logout_InvalidToken(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	_, pair := register(t, auth, "alice")

	if err := auth.Logout(ctx, "", ""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
	if err := auth.Logout(ctx, pair.Access, ""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}

	// The pair must still work after failed logouts.
	if _, err := auth.Refresh(ctx, pair.Refresh); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
}

func TestAuthService_Authenticate_InactiveUser(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()
	alice, pair := register(t, auth, "alice")

	alice.IsActive = false
	if err := db.Users().Update(ctx, alice); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := auth.Authenticate(ctx, pair.Access); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	admin, err := auth.EnsureAdmin(ctx, "root", "root@example.com", "s3cret")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !admin.IsAdmin || !admin.IsActive {
		t.Fatalf("expected active admin, got admin=%v active=%v", admin.IsAdmin, admin.IsActive)
	}

	again, err := auth.EnsureAdmin(ctx, "root", "root@example.com", "other")
	if err != nil {
		t.Fatalf("EnsureAdmin (again): %v", err)
	}
	if again.ID != admin.ID {
		t.Fatalf("expected same admin %d, got %d", admin.ID, again.ID)
	}

	// The original password is kept.
	if _, _, err := auth.Login(ctx, "root", "s3cret"); err != nil {
		t.Fatalf("Login admin: %v", err)
	}
}

func TestAuthService_EnsureAdmin_PromotesExisting(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	alice, _ := register(t, auth, "alice")

	admin, err := auth.EnsureAdmin(ctx, "alice", "", "ignored")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if admin.ID != alice.ID || !admin.IsAdmin {
		t.Fatalf("expected alice to be promoted, got %+v", admin)
	}
}

func TestAuthService_PurgeExpiredRevocations(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	if err := db.RevokedTokens().Revoke(ctx, &domain.RevokedToken{
		TokenID: "old", TokenType: domain.TokenTypeRefresh, ExpiresAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := db.RevokedTokens().Revoke(ctx, &domain.RevokedToken{
		TokenID: "live", TokenType: domain.TokenTypeRefresh, ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	n, err := auth.PurgeExpiredRevocations(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredRevocations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged entry, got %d", n)
	}
	if revoked, _ := db.RevokedTokens().IsRevoked(ctx, "live"); !revoked {
		t.Fatal("expected unexpired revocation to survive")
	}
}
