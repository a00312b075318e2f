package tokengenerator

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtTokenGenerator_RoundTrip(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "clinic-portal", "clinic-portal-web")

	tokenStr, expiry, err := gen.GenerateToken("user-123", time.Hour, map[string]interface{}{
		"role": "doctor",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokenStr)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiry, 5*time.Second)

	token, err := gen.ParseToken(tokenStr)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims["sub"])
	assert.Equal(t, "clinic-portal", claims["iss"])

	extra, ok := claims["extra_claims"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "doctor", extra["role"])
}

func TestJwtTokenGenerator_RejectsWrongSecret(t *testing.T) {
	gen := NewJwtTokenGenerator("right-secret", "clinic-portal", "clinic-portal-web")
	other := NewJwtTokenGenerator("wrong-secret", "clinic-portal", "clinic-portal-web")

	tokenStr, _, err := gen.GenerateToken("user-123", time.Hour, nil)
	require.NoError(t, err)

	_, err = other.ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestJwtTokenGenerator_RejectsExpired(t *testing.T) {
	gen := NewJwtTokenGenerator("test-secret", "clinic-portal", "clinic-portal-web")

	tokenStr, _, err := gen.GenerateToken("user-123", -time.Minute, nil)
	require.NoError(t, err)

	_, err = gen.ParseToken(tokenStr)
	assert.Error(t, err)
}
