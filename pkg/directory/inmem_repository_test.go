package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryUserRepository_CreateAndGet(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, User{
		Email:        "Alice@Clinic.example",
		Name:         "Alice",
		Role:         RoleDoctor,
		PasswordHash: []byte("hash"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	// Email lookup is case-insensitive
	byEmail, err := repo.GetUserByEmail(ctx, "alice@clinic.example")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestInMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, User{Email: "bob@clinic.example", Role: RolePatient})
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, User{Email: "BOB@clinic.example", Role: RolePatient})
	assert.Error(t, err)
}

func TestInMemoryUserRepository_NotFound(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetUserByEmail(ctx, "missing@clinic.example")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = repo.SetTwoFactorEnabled(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInMemoryUserRepository_SetTwoFactorEnabled(t *testing.T) {
	repo := NewInMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, User{Email: "carol@clinic.example", Role: RoleSecretary})
	require.NoError(t, err)
	assert.False(t, user.TwoFactorEnabled)

	err = repo.SetTwoFactorEnabled(ctx, user.ID, true)
	require.NoError(t, err)

	got, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.TwoFactorEnabled)
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"patient", "doctor", "secretary", "admin"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("nurse")
	assert.Error(t, err)
}
