package pendingsession

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "auth_db.sql")),
		postgres.WithDatabase("auth_db"),
		postgres.WithUsername("auth"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}

	connString, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

func createTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, name, role, password_hash)
		VALUES ($1, $2, 'Test User', 'patient', ''::bytea)`,
		id, id.String()+"@clinic.example")
	require.NoError(t, err)
	return id
}

func TestPostgresRepository_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	session := PendingSession{
		Token:     "tok-lifecycle",
		UserID:    userID,
		Purpose:   PurposeLoginVerify,
		IssuedAt:  now,
		ExpiresAt: now.Add(DefaultTTL),
	}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, PurposeLoginVerify, got.Purpose)
	assert.False(t, got.Consumed)

	require.NoError(t, repo.Consume(ctx, session.Token))
	err = repo.Consume(ctx, session.Token)
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	got, err = repo.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, got.Consumed)
}

func TestPostgresRepository_ConsumeUnknownToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	repo := NewPostgresRepository(pool)
	err := repo.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestPostgresRepository_DeleteExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	pool, cleanup := setupTestDatabase(t)
	defer cleanup()

	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool)

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, PendingSession{
		Token: "tok-old", UserID: userID, Purpose: PurposeLoginVerify,
		IssuedAt: now.Add(-20 * time.Minute), ExpiresAt: now.Add(-10 * time.Minute),
	}))
	require.NoError(t, repo.Create(ctx, PendingSession{
		Token: "tok-fresh", UserID: userID, Purpose: PurposeLoginVerify,
		IssuedAt: now, ExpiresAt: now.Add(DefaultTTL),
	}))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, "tok-old")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = repo.Get(ctx, "tok-fresh")
	assert.NoError(t, err)
}
