package service

import (
	"context"
	"testing"
	"time"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/dto"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sharedTokens = token.NewManager("test-secret", time.Hour, 24*time.Hour)

func testTokens() *token.Manager {
	return sharedTokens
}

func registerReq(email, password string) *dto.RegisterRequest {
	return &dto.RegisterRequest{Email: email, Password: password}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auth := f.auth()

	res, err := auth.Register(ctx, registerReq("  Ada@Example.com ", "secret123"), "127.0.0.1", "test")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.True(t, res.User.IsActive)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Contains(t, f.publisher.types(), constant.EventUserRegistered)

	claims, err := sharedTokens.Parse(res.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, res.User.Id, claims.UserId)

	t.Run("duplicate email is case-insensitive", func(t *testing.T) {
		_, err := auth.Register(ctx, registerReq("ADA@example.COM", "another1"), "", "")
		assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := auth.Register(ctx, registerReq("not-an-email", "secret123"), "", "")
		assert.ErrorIs(t, err, apperror.ErrInvalidEmail)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := auth.Register(ctx, registerReq("bob@example.com", "12345"), "", "")
		assert.ErrorIs(t, err, apperror.ErrWeakPassword)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auth := f.auth()
	userId := f.newUser(t, "ada@example.com")

	t.Run("right password", func(t *testing.T) {
		res, err := auth.Login(ctx, &dto.LoginRequest{Email: "ADA@example.com", Password: "secret123"}, "", "")
		require.NoError(t, err)
		assert.Equal(t, userId, res.User.Id)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "nope-nope"}, "", "")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := auth.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "secret123"}, "", "")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		require.NoError(t, f.factory.NewUnitOfWork(ctx).UserRepository().SetActive(ctx, userId, false))
		_, err := auth.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "secret123"}, "", "")
		assert.ErrorIs(t, err, apperror.ErrAccountInactive)
	})
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auth := f.auth()

	res, err := auth.Register(ctx, registerReq("ada@example.com", "secret123"), "", "")
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	claims, err := sharedTokens.Parse(refreshed.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, res.User.Id, claims.UserId)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := auth.Refresh(ctx, res.AccessToken)
		assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
	})

	t.Run("logout revokes the refresh token", func(t *testing.T) {
		require.NoError(t, auth.Logout(ctx, res.RefreshToken))
		_, err := auth.Refresh(ctx, res.RefreshToken)
		assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))

		// Idempotent.
		assert.NoError(t, auth.Logout(ctx, res.RefreshToken))
		assert.NoError(t, auth.Logout(ctx, ""))
	})
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userId := f.newUser(t, "ada@example.com")

	me, err := f.auth().Me(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", me.User.Email)

	_, err = f.auth().Me(ctx, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	require.NoError(t, f.factory.NewUnitOfWork(ctx).UserRepository().SetActive(ctx, userId, false))
	me, err = f.auth().Me(ctx, userId)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err), "inactive users are hidden")
	assert.Nil(t, me)
}
