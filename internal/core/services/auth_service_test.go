package services

import (
	"context"
	"testing"

	"passport-portal/internal/adapters/persistence/repositories/repotest"
	"passport-portal/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth() (*AuthService, *repotest.Users, *repotest.Tokens) {
	users := repotest.NewUsers()
	tokens := repotest.NewTokens()
	return NewAuthService(users, tokens, testConfig()), users, tokens
}

func TestAuth_RegisterThenLogin(t *testing.T) {
	svc, _, tokens := newAuth()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterInput{Email: "Nimal@Example.lk", FullName: "Nimal Perera", Password: "renewal2026"})
	require.NoError(t, err)
	assert.Equal(t, "nimal@example.lk", reg.User.Email)
	assert.Equal(t, "applicant", reg.User.Role)

	claims, err := jwt.ValidateAccessToken(reg.AccessToken, testConfig().JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, "applicant", claims.Role)

	login, err := svc.Login(ctx, &LoginInput{Email: "nimal@example.lk", Password: "renewal2026"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.RefreshToken)
	assert.False(t, login.ExpiresAt.IsZero())
	assert.Equal(t, 2, tokens.Active())
}

func TestAuth_RegisterRejectsBadInput(t *testing.T) {
	svc, _, _ := newAuth()
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterInput{Email: "not-an-email", FullName: "X", Password: "renewal2026"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, &RegisterInput{Email: "a@example.lk", FullName: "X", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, &RegisterInput{Email: "a@example.lk", FullName: "A", Password: "renewal2026"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterInput{Email: "A@example.lk", FullName: "A", Password: "renewal2026"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuth_LoginFailures(t *testing.T) {
	svc, users, _ := newAuth()
	ctx := context.Background()

	_, err := svc.Login(ctx, &LoginInput{Email: "ghost@example.lk", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	reg, err := svc.Register(ctx, &RegisterInput{Email: "k@example.lk", FullName: "K", Password: "renewal2026"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginInput{Email: "k@example.lk", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, _ := users.GetByID(ctx, reg.User.ID)
	u.IsActive = false
	require.NoError(t, users.Update(ctx, u))
	_, err = svc.Login(ctx, &LoginInput{Email: "k@example.lk", Password: "renewal2026"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	svc, _, tokens := newAuth()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterInput{Email: "s@example.lk", FullName: "S", Password: "renewal2026"})
	require.NoError(t, err)

	next, err := svc.RefreshToken(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, next.RefreshToken)
	assert.Equal(t, 1, tokens.Active())

	_, err = svc.RefreshToken(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked, "an old refresh token cannot be replayed")

	require.NoError(t, svc.Logout(ctx, next.RefreshToken))
	_, err = svc.RefreshToken(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuth_RefreshRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuth()
	_, err := svc.RefreshToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
