package services

import (
	"context"
	"testing"

	"github.com/Dosada05/bracket-live/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewInMemoryStore()
	svc := NewAuthService(store.Users())

	t.Run("password too short", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Email:    "short@example.com",
			Username: "short",
			Password: "1234567",
		})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("register normalizes email and hides hash", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterInput{
			Email:    "  Alice@Example.COM ",
			Username: "alice",
			Password: "secret-password",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Email:    "alice@example.com",
			Username: "alice2",
			Password: "secret-password",
		})
		assert.ErrorIs(t, err, ErrAuthEmailTaken)
	})

	t.Run("login with valid credentials", func(t *testing.T) {
		user, err := svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "secret-password"})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret-password"})
		assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
	})
}
