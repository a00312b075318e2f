package directory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	errs "github.com/assia769/Assojet-sub000/pkg/errors"
)

// DirectoryService exposes user lookups to the rest of the auth subsystem
type DirectoryService struct {
	repo UserRepository
}

func NewDirectoryService(repo UserRepository) *DirectoryService {
	return &DirectoryService{repo: repo}
}

// FindUserByEmail looks up a user by email address
func (s *DirectoryService) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.Debug("user lookup by email failed", "err", err)
			return User{}, errs.New(errs.ErrCodeUnknownUser, "user not found")
		}
		slog.Error("failed to get user by email", "err", err)
		return User{}, errs.InternalWrap(err, "failed to get user")
	}
	return user, nil
}

// FindUserByID looks up a user by ID
func (s *DirectoryService) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.Debug("user lookup by id failed", "user_id", id, "err", err)
			return User{}, errs.New(errs.ErrCodeUnknownUser, "user not found")
		}
		slog.Error("failed to get user by id", "user_id", id, "err", err)
		return User{}, errs.InternalWrap(err, "failed to get user")
	}
	return user, nil
}

// SetTwoFactorEnabled records whether 2FA is active for the account
func (s *DirectoryService) SetTwoFactorEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	err := s.repo.SetTwoFactorEnabled(ctx, id, enabled)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return errs.New(errs.ErrCodeUnknownUser, "user not found")
		}
		slog.Error("failed to update two factor flag", "user_id", id, "err", err)
		return errs.InternalWrap(err, "failed to update two factor flag")
	}
	slog.Info("two factor flag updated", "user_id", id, "enabled", enabled)
	return nil
}
