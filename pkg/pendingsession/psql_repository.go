package pendingsession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-based pending session repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session PendingSession) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pending_sessions (token, user_id, purpose, issued_at, expires_at, consumed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.Token, session.UserID, session.Purpose,
		session.IssuedAt, session.ExpiresAt, session.Consumed)
	if err != nil {
		return fmt.Errorf("failed to create pending session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, token string) (PendingSession, error) {
	var s PendingSession
	err := r.db.QueryRow(ctx, `
		SELECT token, user_id, purpose, issued_at, expires_at, consumed
		FROM pending_sessions WHERE token = $1`, token).
		Scan(&s.Token, &s.UserID, &s.Purpose, &s.IssuedAt, &s.ExpiresAt, &s.Consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return PendingSession{}, ErrTokenNotFound
	}
	if err != nil {
		return PendingSession{}, fmt.Errorf("failed to get pending session: %w", err)
	}
	return s, nil
}

// Consume relies on the conditional UPDATE for atomicity. Concurrent
// consumers of the same token race on consumed = false and only one
// UPDATE reports an affected row.
func (r *PostgresRepository) Consume(ctx context.Context, token string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE pending_sessions SET consumed = true
		WHERE token = $1 AND consumed = false`, token)
	if err != nil {
		return fmt.Errorf("failed to consume pending session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing token from a lost race
	var exists bool
	err = r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pending_sessions WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check pending session: %w", err)
	}
	if exists {
		return ErrAlreadyConsumed
	}
	return ErrTokenNotFound
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM pending_sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pending sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
