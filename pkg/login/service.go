package login

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/assia769/Assojet-sub000/pkg/directory"
	errs "github.com/assia769/Assojet-sub000/pkg/errors"
)

// LoginService verifies credentials against the user directory.
type LoginService struct {
	repo   directory.UserRepository
	hasher PasswordHasher
}

func NewLoginService(repo directory.UserRepository, hasher PasswordHasher) *LoginService {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &LoginService{
		repo:   repo,
		hasher: hasher,
	}
}

// VerifyCredentials checks an email and password pair. It returns the same
// InvalidCredentials error whether the user is unknown or the password is
// wrong, so callers cannot probe which emails exist.
func (s *LoginService) VerifyCredentials(ctx context.Context, email, password string) (directory.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		slog.Debug("login failed, user lookup", "err", err)
		return directory.User{}, errs.New(errs.ErrCodeInvalidCredentials, "invalid email or password")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		slog.Error("password verification failed", "user_id", user.ID, "err", err)
		return directory.User{}, errs.InternalWrap(err, "failed to verify password")
	}
	if !ok {
		slog.Debug("login failed, password mismatch", "user_id", user.ID)
		return directory.User{}, errs.New(errs.ErrCodeInvalidCredentials, "invalid email or password")
	}

	return user, nil
}

// VerifyPassword re-checks the password of an already authenticated user,
// used to gate sensitive operations like disabling 2FA.
func (s *LoginService) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return errs.New(errs.ErrCodeUnknownUser, "user not found")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		slog.Error("password verification failed", "user_id", userID, "err", err)
		return errs.InternalWrap(err, "failed to verify password")
	}
	if !ok {
		return errs.New(errs.ErrCodeInvalidPassword, "password does not match")
	}
	return nil
}
