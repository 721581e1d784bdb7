package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("delegate123")
	require.NoError(t, err)
	assert.NotEqual(t, "delegate123", hash)

	assert.True(t, CheckPasswordHash("delegate123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateJWT(42, "session-1")
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret", time.Hour).GenerateJWT(1, "s")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour).ValidateJWT(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTRejectsExpired(t *testing.T) {
	token, err := NewTokenIssuer("secret", -time.Minute).GenerateJWT(1, "s")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).ValidateJWT(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTRejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer("secret", time.Hour).ValidateJWT("not-a-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
