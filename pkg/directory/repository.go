package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by repositories when no user matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the persistence operations the auth subsystem
// needs from the user store.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	SetTwoFactorEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}
