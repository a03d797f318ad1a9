package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events Publisher

	// StrictAdminCheck makes CheckAdmin answer false when the caller asks
	// about an email other than their own. Off by default: the mismatch is
	// only logged and the stored role is reported.
	StrictAdminCheck bool
}

type PromoteResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// IsAdmin reports whether a stored user with that email has the admin role.
// An unknown email is not an error.
func (s *UserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) CheckAdmin(ctx context.Context, email, callerEmail string) (bool, error) {
	if callerEmail != email {
		l := logging.FromContext(ctx).With("svc", "users.check_admin")
		if s.StrictAdminCheck {
			l.Warn("admin_check_identity_mismatch", "action", "rejected")
			return false, nil
		}
		l.Warn("admin_check_identity_mismatch", "action", "ignored")
	}
	return s.IsAdmin(ctx, email)
}

// PromoteToAdmin does not treat a missing id as an error; callers inspect
// ModifiedCount instead.
func (s *UserService) PromoteToAdmin(ctx context.Context, id string) (PromoteResult, error) {
	n, err := s.Repo.PromoteToAdmin(ctx, id)
	if err != nil {
		return PromoteResult{}, err
	}
	if n > 0 {
		publish(ctx, s.Events, TopicUserEvents, id, Event{Type: "user_promoted", UserID: id})
	}
	return PromoteResult{MatchedCount: n, ModifiedCount: n}, nil
}

// Signup stores a new member. Any id or role in the body is ignored.
func (s *UserService) Signup(ctx context.Context, user models.User) (string, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return "", fmt.Errorf("email is required: %w", ErrValidation)
	}

	exists, err := s.Repo.UserExists(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("user %s: %w", user.Email, ErrAlreadyExists)
	}

	user.ID = ""
	user.Role = models.RoleMember
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("user %s: %w", user.Email, ErrAlreadyExists)
		}
		return "", err
	}

	publish(ctx, s.Events, TopicUserEvents, user.ID, Event{Type: "user_signed_up", UserID: user.ID, Email: user.Email})
	return user.ID, nil
}
