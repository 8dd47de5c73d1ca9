package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/microblog/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// TokenLifetimes configures how long issued tokens stay valid.
// Zero values fall back to DefaultAccessTTL and DefaultRefreshTTL.
type TokenLifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

// AuthService handles registration, login and the JWT access/refresh
// token lifecycle, including the revocation set.
type AuthService struct {
	users      domain.UserRepository
	revoked    domain.RevokedTokenRepository
	jwtSecret  []byte
	bcryptCost int
	lifetimes  TokenLifetimes
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, revoked domain.RevokedTokenRepository, jwtSecret string, bcryptCost int, lifetimes TokenLifetimes) *AuthService {
	if lifetimes.Access <= 0 {
		lifetimes.Access = DefaultAccessTTL
	}
	if lifetimes.Refresh <= 0 {
		lifetimes.Refresh = DefaultRefreshTTL
	}
	return &AuthService{
		users:      users,
		revoked:    revoked,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		lifetimes:  lifetimes,
	}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// Register creates a new user and immediately issues a token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, domain.TokenPair, error) {
	v := &domain.ValidationError{}
	validateUsername(v, in.Username)
	validateEmail(v, in.Email)
	if in.Password == "" {
		v.Add("password", msgRequired)
	}
	if in.Password2 == "" {
		v.Add("password2", msgRequired)
	}
	if in.Password != "" && in.Password2 != "" && in.Password != in.Password2 {
		v.Add(domain.NonFieldErrors, "passwords do not match")
	}
	if err := v.Err(); err != nil {
		return nil, domain.TokenPair{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, domain.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			v.Add("username", "A user with that username already exists.")
			v.Cause = domain.ErrDuplicateUsername
			return nil, domain.TokenPair{}, v
		}
		return nil, domain.TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, domain.TokenPair, error) {
	if username == "" || password == "" {
		return nil, domain.TokenPair{}, domain.NewValidationError(domain.NonFieldErrors, "must include username and password")
	}

	invalid := func() error {
		v := domain.NewValidationError(domain.NonFieldErrors, "invalid credentials")
		v.Cause = domain.ErrInvalidCredentials
		return v
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.TokenPair{}, invalid()
		}
		return nil, domain.TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.TokenPair{}, invalid()
	}

	if !user.IsActive {
		v := domain.NewValidationError(domain.NonFieldErrors, "user inactive")
		v.Cause = domain.ErrUserInactive
		return nil, domain.TokenPair{}, v
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parse(ctx, refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.userForClaims(ctx, claims)
	if err != nil {
		return "", err
	}

	access, err := s.sign(user, domain.TokenTypeAccess, s.lifetimes.Access)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

// Logout adds the refresh token to the revocation set so it can never
// mint another access token. The bearer access token, when given, is
// revoked too. A malformed or already revoked refresh token is an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	claims, err := s.parse(ctx, refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}

	if accessToken == "" {
		return nil
	}
	access, err := s.parse(ctx, accessToken, domain.TokenTypeAccess)
	if err != nil {
		return nil
	}
	if err := s.revoke(ctx, access); err != nil && !errors.Is(err, domain.ErrTokenRevoked) {
		return err
	}
	return nil
}

// Authenticate validates a bearer access token and returns its active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.parse(ctx, accessToken, domain.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return s.userForClaims(ctx, claims)
}

// EnsureAdmin creates the named administrator account, or promotes and
// reactivates it when it already exists. It is idempotent.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if user != nil {
		if user.IsAdmin && user.IsActive {
			return user, nil
		}
		user.IsAdmin = true
		user.IsActive = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		return user, nil
	}

	v := &domain.ValidationError{}
	validateUsername(v, username)
	validateEmail(v, email)
	if password == "" {
		v.Add("password", msgRequired)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user = &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

// PurgeExpiredRevocations drops revocation entries for tokens that have
// expired anyway.
func (s *AuthService) PurgeExpiredRevocations(ctx context.Context) (int64, error) {
	return s.revoked.DeleteExpired(ctx, time.Now().UTC())
}

// RunRevocationJanitor purges expired revocations every interval until
// ctx is cancelled.
func (s *AuthService) RunRevocationJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpiredRevocations(ctx)
			if err != nil {
				slog.Error("purge expired revocations", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired revocations", "count", n)
			}
		}
	}
}

type tokenClaims struct {
	TokenType domain.TokenType `json:"token_type"`
	Username  string           `json:"username,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) issuePair(user *domain.User) (domain.TokenPair, error) {
	access, err := s.sign(user, domain.TokenTypeAccess, s.lifetimes.Access)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(user, domain.TokenTypeRefresh, s.lifetimes.Refresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) sign(user *domain.User, typ domain.TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		TokenType: typ,
		Username:  user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// parse validates signature, expiry and token type, then consults the
// revocation set.
func (s *AuthService) parse(ctx context.Context, tokenString string, want domain.TokenType) (*tokenClaims, error) {
	if tokenString == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.TokenType != want || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}
	return claims, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *tokenClaims) error {
	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
	entry := &domain.RevokedToken{
		TokenID:   claims.ID,
		UserID:    userID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.revoked.Revoke(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrTokenRevoked) {
			return err
		}
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) userForClaims(ctx context.Context, claims *tokenClaims) (*domain.User, error) {
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}
