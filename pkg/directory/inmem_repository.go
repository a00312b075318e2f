package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryUserRepository implements UserRepository using in-memory storage.
// Useful for development, demos and tests without a database.
type InMemoryUserRepository struct {
	mutex   sync.RWMutex
	users   map[uuid.UUID]User
	byEmail map[string]uuid.UUID
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:   make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
	}
}

// CreateUser stores a new user
func (r *InMemoryUserRepository) CreateUser(ctx context.Context, user User) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return User{}, fmt.Errorf("user already exists: %s", user.Email)
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	r.users[user.ID] = user
	r.byEmail[email] = user.ID

	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *InMemoryUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *InMemoryUserRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	id, exists := r.byEmail[strings.ToLower(email)]
	if !exists {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return r.users[id], nil
}

// SetTwoFactorEnabled flips the 2FA flag for a user
func (r *InMemoryUserRepository) SetTwoFactorEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, exists := r.users[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}

	user.TwoFactorEnabled = enabled
	r.users[id] = user
	return nil
}
