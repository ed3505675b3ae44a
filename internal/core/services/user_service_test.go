package services

import (
	"context"
	"testing"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/adapters/persistence/repositories/repotest"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (*UserService, *repotest.Users, *repotest.Tokens) {
	t.Helper()
	users := repotest.NewUsers()
	tokens := repotest.NewTokens()

	hash, err := password.Hash("secret123")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: "u1", Email: "nimal@example.com", FullName: "Nimal Perera",
		Password: hash, Role: string(domain.RoleApplicant), IsActive: true,
	}))
	return NewUserService(users, tokens), users, tokens
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	name := "  Nimal K. Perera "
	got, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Nimal K. Perera", got.FullName)

	blank := " "
	_, err = svc.UpdateProfile(ctx, "u1", UpdateProfileInput{FullName: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ChangePassword_RevokesSessions(t *testing.T) {
	svc, users, tokens := newUserFixture(t)
	ctx := context.Background()
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{UserID: "u1", TokenHash: "h"}))

	err := svc.ChangePassword(ctx, "u1", ChangePasswordInput{OldPassword: "wrong", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrOldPasswordWrong)

	err = svc.ChangePassword(ctx, "u1", ChangePasswordInput{OldPassword: "secret123", NewPassword: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	require.NoError(t, svc.ChangePassword(ctx, "u1", ChangePasswordInput{OldPassword: "secret123", NewPassword: "newpass123"}))
	user, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, password.Verify("newpass123", user.Password))
	assert.Zero(t, tokens.Active())
}

func TestUserService_SetUserRole(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.SetUserRole(ctx, "admin-1", "u1", domain.Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.SetUserRole(ctx, "u1", "u1", domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)

	got, err := svc.SetUserRole(ctx, "admin-1", "u1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)
}
