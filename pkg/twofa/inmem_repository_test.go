package twofa

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_EnrollmentLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	userID := uuid.New()

	err := repo.SaveProvisionalEnrollment(ctx, userID, "SECRETONE", []string{"AAAA1111", "BBBB2222"})
	require.NoError(t, err)

	secret, err := repo.GetSecret(ctx, userID, SecretStatusProvisional)
	require.NoError(t, err)
	assert.Equal(t, "SECRETONE", secret.Secret)

	_, err = repo.GetSecret(ctx, userID, SecretStatusActive)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, repo.PromoteProvisionalEnrollment(ctx, userID))

	active, err := repo.GetSecret(ctx, userID, SecretStatusActive)
	require.NoError(t, err)
	assert.Equal(t, "SECRETONE", active.Secret)

	codes, err := repo.ListBackupCodes(ctx, userID, false)
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}

func TestInMemoryRepository_PromoteWithoutProvisional(t *testing.T) {
	repo := NewInMemoryRepository()
	err := repo.PromoteProvisionalEnrollment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestInMemoryRepository_ConsumeBackupCode_ExactlyOnce(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.SaveProvisionalEnrollment(ctx, userID, "SECRET", []string{"CCCC3333"}))
	require.NoError(t, repo.PromoteProvisionalEnrollment(ctx, userID))

	require.NoError(t, repo.ConsumeBackupCode(ctx, userID, "CCCC3333"))
	err := repo.ConsumeBackupCode(ctx, userID, "CCCC3333")
	assert.ErrorIs(t, err, ErrBackupCodeNotFound)

	codes, err := repo.ListBackupCodes(ctx, userID, false)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.True(t, codes[0].Used)
	assert.NotNil(t, codes[0].UsedAt)
}

func TestInMemoryRepository_ConsumeBackupCode_Concurrent(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.SaveProvisionalEnrollment(ctx, userID, "SECRET", []string{"DDDD4444"}))
	require.NoError(t, repo.PromoteProvisionalEnrollment(ctx, userID))

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.ConsumeBackupCode(ctx, userID, "DDDD4444")
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrBackupCodeNotFound)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent consumer may win")
}

func TestInMemoryRepository_SaveProvisionalKeepsActive(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.SaveProvisionalEnrollment(ctx, userID, "FIRST", []string{"EEEE5555"}))
	require.NoError(t, repo.PromoteProvisionalEnrollment(ctx, userID))

	require.NoError(t, repo.SaveProvisionalEnrollment(ctx, userID, "SECOND", []string{"FFFF6666"}))

	active, err := repo.GetSecret(ctx, userID, SecretStatusActive)
	require.NoError(t, err)
	assert.Equal(t, "FIRST", active.Secret)

	provisional, err := repo.GetSecret(ctx, userID, SecretStatusProvisional)
	require.NoError(t, err)
	assert.Equal(t, "SECOND", provisional.Secret)

	// Active codes survive, provisional codes are the new batch
	activeCodes, err := repo.ListBackupCodes(ctx, userID, false)
	require.NoError(t, err)
	require.Len(t, activeCodes, 1)
	assert.Equal(t, "EEEE5555", activeCodes[0].Code)
}

func TestInMemoryRepository_DeleteTwoFactor(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.SaveProvisionalEnrollment(ctx, userID, "SECRET", []string{"GGGG7777"}))
	require.NoError(t, repo.PromoteProvisionalEnrollment(ctx, userID))
	require.NoError(t, repo.DeleteTwoFactor(ctx, userID))

	_, err := repo.GetSecret(ctx, userID, SecretStatusActive)
	assert.ErrorIs(t, err, ErrSecretNotFound)
	codes, err := repo.ListBackupCodes(ctx, userID, false)
	require.NoError(t, err)
	assert.Empty(t, codes)
}
