package pendingsession

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mutex    sync.Mutex
	sessions map[string]PendingSession
}

// NewInMemoryRepository creates a new in-memory pending session repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]PendingSession),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, session PendingSession) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sessions[session.Token]; exists {
		return fmt.Errorf("pending session token collision")
	}
	r.sessions[session.Token] = session
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, token string) (PendingSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, exists := r.sessions[token]
	if !exists {
		return PendingSession{}, ErrTokenNotFound
	}
	return session, nil
}

func (r *InMemoryRepository) Consume(ctx context.Context, token string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, exists := r.sessions[token]
	if !exists {
		return ErrTokenNotFound
	}
	if session.Consumed {
		return ErrAlreadyConsumed
	}
	session.Consumed = true
	r.sessions[token] = session
	return nil
}

func (r *InMemoryRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deleted int64
	for token, session := range r.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}
