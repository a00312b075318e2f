package pendingsession

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Purposes bind a pending session to the flow that created it. A token
// issued for login cannot confirm an enrollment and vice versa.
const (
	PurposeLoginVerify = "login-verify"
	PurposeSetupVerify = "setup-verify"
)

var (
	ErrTokenNotFound   = errors.New("pending session not found")
	ErrAlreadyConsumed = errors.New("pending session already consumed")
)

// PendingSession is the short-lived state between a successful first
// factor and the second-factor code submission.
type PendingSession struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Purpose   string    `json:"purpose"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}

// Repository persists pending sessions.
type Repository interface {
	Create(ctx context.Context, session PendingSession) error

	// Get returns the session whether or not it is expired or consumed.
	// Callers apply the expiry and consumption rules.
	Get(ctx context.Context, token string) (PendingSession, error)

	// Consume marks the session consumed. The update is conditional on the
	// session not being consumed yet, so exactly one of any set of
	// concurrent callers succeeds; the rest get ErrAlreadyConsumed.
	Consume(ctx context.Context, token string) error

	// DeleteExpired removes sessions that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
