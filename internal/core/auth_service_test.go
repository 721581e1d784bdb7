package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unova-mun/unova-server/internal/auth"
	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
)

func newTestAuthService(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()
	db := openTestStore(t)
	return NewAuthService(db, auth.NewTokenIssuer("test-secret", time.Hour), logger.NewNop()), db
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	result, err := svc.Register(ctx, RegisterInput{
		Username: "amina",
		Email:    "Amina@Example.org",
		Password: "secret1",
		Name:     strPtr("Amina"),
	})
	require.NoError(t, err)
	assert.Equal(t, "amina@example.org", result.User.Email)
	assert.NotEqual(t, "secret1", result.User.PasswordHash)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	user, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(ctx, RegisterInput{Username: "amina", Email: "amina@example.org", Password: "secret1"})
	require.NoError(t, err)

	cases := map[string]RegisterInput{
		"missing username": {Email: "a@example.org", Password: "secret1"},
		"missing password": {Username: "x", Email: "x@example.org"},
		"bad email":        {Username: "x", Email: "not-an-email", Password: "secret1"},
		"short password":   {Username: "x", Email: "x@example.org", Password: "12345"},
		"taken username":   {Username: "amina", Email: "other@example.org", Password: "secret1"},
		"taken email":      {Username: "other", Email: "AMINA@example.org", Password: "secret1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)
	_, err := svc.Register(ctx, RegisterInput{Username: "amina", Email: "amina@example.org", Password: "secret1"})
	require.NoError(t, err)

	byEmail, err := svc.Login(ctx, "amina@example.org", "secret1")
	require.NoError(t, err)
	byUsername, err := svc.Login(ctx, "amina", "secret1")
	require.NoError(t, err)
	assert.Equal(t, byEmail.User.ID, byUsername.User.ID)
	assert.NotEqual(t, byEmail.Token, byUsername.Token)

	var authErr *AuthenticationError
	_, err = svc.Login(ctx, "amina", "wrong-password")
	require.ErrorAs(t, err, &authErr)
	_, err = svc.Login(ctx, "nobody", "secret1")
	require.ErrorAs(t, err, &authErr)

	var validationErr *ValidationError
	_, err = svc.Login(ctx, "", "secret1")
	require.ErrorAs(t, err, &validationErr)
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)
	result, err := svc.Register(ctx, RegisterInput{Username: "amina", Email: "amina@example.org", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))
	require.NoError(t, svc.Logout(ctx, result.Token))
	require.NoError(t, svc.Logout(ctx, "garbage"))

	_, err = svc.Authenticate(ctx, result.Token)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestAuthService(t)
	result, err := svc.Register(ctx, RegisterInput{Username: "amina", Email: "amina@example.org", Password: "secret1"})
	require.NoError(t, err)

	var authErr *AuthenticationError
	_, err = svc.Authenticate(ctx, "")
	require.ErrorAs(t, err, &authErr)

	_, err = svc.Authenticate(ctx, "not.a.token")
	require.ErrorAs(t, err, &authErr)

	foreign := auth.NewTokenIssuer("other-secret", time.Hour)
	forged, err := foreign.GenerateJWT(result.User.ID, "some-session")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	require.ErrorAs(t, err, &authErr)

	// A valid signature for a session that does not exist.
	orphan, err := svc.tokens.GenerateJWT(result.User.ID, "missing-session")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, orphan)
	require.ErrorAs(t, err, &authErr)

	// An expired session row.
	session, err := db.CreateSession(ctx, result.User.ID, -time.Minute)
	require.NoError(t, err)
	stale, err := svc.tokens.GenerateJWT(result.User.ID, session.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, stale)
	require.ErrorAs(t, err, &authErr)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t)
	amina, err := svc.Register(ctx, RegisterInput{Username: "amina", Email: "amina@example.org", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "bruno", Email: "bruno@example.org", Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, amina.User.ID, ProfilePatch{Name: strPtr("Amina K.")})
	require.NoError(t, err)
	assert.Equal(t, "amina", updated.Username)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Amina K.", *updated.Name)

	// Re-submitting your own username is not a conflict.
	_, err = svc.UpdateProfile(ctx, amina.User.ID, ProfilePatch{Username: strPtr("amina")})
	require.NoError(t, err)

	var validationErr *ValidationError
	_, err = svc.UpdateProfile(ctx, amina.User.ID, ProfilePatch{Username: strPtr("bruno")})
	require.ErrorAs(t, err, &validationErr)
	_, err = svc.UpdateProfile(ctx, amina.User.ID, ProfilePatch{Email: strPtr("bruno@example.org")})
	require.ErrorAs(t, err, &validationErr)
	_, err = svc.UpdateProfile(ctx, amina.User.ID, ProfilePatch{Email: strPtr("nope")})
	require.ErrorAs(t, err, &validationErr)

	var notFoundErr *NotFoundError
	_, err = svc.UpdateProfile(ctx, 9999, ProfilePatch{Name: strPtr("ghost")})
	require.ErrorAs(t, err, &notFoundErr)
}
