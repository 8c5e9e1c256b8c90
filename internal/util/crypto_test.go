package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashToken(t *testing.T) {
	hash := HashToken("some-token")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken("some-token"))
	assert.NotEqual(t, hash, HashToken("other-token"))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
	assert.False(t, CheckPasswordHash("hunter22", "not-a-bcrypt-hash"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	t.Run("valid token parses back", func(t *testing.T) {
		signed, err := NewAccessToken(secret, "user-1", "doctor", time.Minute)
		require.NoError(t, err)

		claims, err := ParseAccessToken(secret, signed)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "doctor", claims.Role)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		signed, err := NewAccessToken(secret, "user-1", "doctor", time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken("other-secret", signed)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		signed, err := NewAccessToken(secret, "user-1", "doctor", -time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(secret, signed)
		assert.Error(t, err)
	})
}
