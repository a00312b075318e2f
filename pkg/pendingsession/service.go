package pendingsession

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assia769/Assojet-sub000/pkg/clock"
	errs "github.com/assia769/Assojet-sub000/pkg/errors"
	"github.com/assia769/Assojet-sub000/pkg/utils"
)

const (
	// DefaultTTL is how long a pending session stays valid.
	DefaultTTL = 600 * time.Second

	tokenLength = 32
)

// Service issues and resolves pending sessions.
type Service struct {
	repo  Repository
	clock clock.Clock
	ttl   time.Duration
}

type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func NewService(repo Repository, clk clock.Clock, opts ...Option) *Service {
	svc := &Service{
		repo:  repo,
		clock: clk,
		ttl:   DefaultTTL,
	}
	if svc.clock == nil {
		svc.clock = clock.NewSystemClock()
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Issue creates a pending session for the user and purpose, returning the
// opaque token the client must present with its code.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, purpose string) (PendingSession, error) {
	token := utils.GenerateRandomString(tokenLength)
	now := s.clock.Now().UTC()
	session := PendingSession{
		Token:     token,
		UserID:    userID,
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		slog.Error("failed to store pending session", "user_id", userID, "err", err)
		return PendingSession{}, errs.InternalWrap(err, "failed to store pending session")
	}

	slog.Info("pending session issued", "user_id", userID, "purpose", purpose,
		"expires_at", session.ExpiresAt)
	return session, nil
}

// Resolve looks up a token and applies the validity rules. Unknown,
// expired and consumed tokens all surface as the same InvalidSession
// error; the distinction is logged but never leaked to the caller.
func (s *Service) Resolve(ctx context.Context, token string) (PendingSession, error) {
	session, err := s.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			slog.Debug("pending session rejected", "reason", "unknown token")
			return PendingSession{}, errs.New(errs.ErrCodeInvalidSession, "invalid or expired session")
		}
		slog.Error("failed to get pending session", "err", err)
		return PendingSession{}, errs.InternalWrap(err, "failed to get pending session")
	}

	if session.Consumed {
		slog.Debug("pending session rejected", "reason", "already consumed", "user_id", session.UserID)
		return PendingSession{}, errs.New(errs.ErrCodeInvalidSession, "invalid or expired session")
	}
	if s.clock.Now().After(session.ExpiresAt) {
		slog.Debug("pending session rejected", "reason", "expired",
			"user_id", session.UserID, "expired_at", session.ExpiresAt)
		return PendingSession{}, errs.New(errs.ErrCodeInvalidSession, "invalid or expired session")
	}

	return session, nil
}

// Consume marks the token used. At most one concurrent caller succeeds.
func (s *Service) Consume(ctx context.Context, token string) error {
	err := s.repo.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAlreadyConsumed) || errors.Is(err, ErrTokenNotFound) {
			return errs.New(errs.ErrCodeInvalidSession, "invalid or expired session")
		}
		slog.Error("failed to consume pending session", "err", err)
		return errs.InternalWrap(err, "failed to consume pending session")
	}
	return nil
}

// PurgeExpired removes sessions past their expiry. Expiry is otherwise
// lazy; this exists for housekeeping, correctness never depends on it.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		slog.Error("failed to purge expired pending sessions", "err", err)
		return 0, errs.InternalWrap(err, "failed to purge expired sessions")
	}
	if deleted > 0 {
		slog.Info("purged expired pending sessions", "count", deleted)
	}
	return deleted, nil
}
