package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/microblog/internal/domain"
	"github.com/msomdec/microblog/internal/policy"
)

// UserService exposes user accounts. Reads are open; writes are for
// administrators only.
type UserService struct {
	users domain.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// UserChanges holds the administrator-writable user fields. Nil means absent.
type UserChanges struct {
	Username *string
	Email    *string
	IsActive *bool
	IsAdmin  *bool
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies changes to the user. With partial unset, username is required.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id int64, changes UserChanges, partial bool) (*domain.User, error) {
	if err := policy.Authorize(policy.Update, policy.User, actor, id); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	v := &domain.ValidationError{}
	if changes.Username != nil {
		validateUsername(v, *changes.Username)
	} else if !partial {
		v.Add("username", msgRequired)
	}
	if changes.Email != nil {
		validateEmail(v, *changes.Email)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if changes.Username != nil {
		user.Username = *changes.Username
	}
	if changes.Email != nil {
		user.Email = *changes.Email
	}
	if changes.IsActive != nil {
		user.IsActive = *changes.IsActive
	}
	if changes.IsAdmin != nil {
		user.IsAdmin = *changes.IsAdmin
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			verr := domain.NewValidationError("username", "A user with that username already exists.")
			verr.Cause = err
			return nil, verr
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Deactivate disables the account. Users are never hard-deleted, so
// their posts and comments keep a valid author.
func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, id int64) error {
	if err := policy.Authorize(policy.Delete, policy.User, actor, id); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}
	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}
