package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/pkg/apperror"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := NewAdminService(f.factory, f.publisher, f.log, "")

	doomed := f.newUser(t, "doomed@example.com")
	survivor := f.newUser(t, "survivor@example.com")

	doomedSession, err := f.history.AppendExchange(ctx, nil, doomed, "q", "a")
	require.NoError(t, err)
	_, err = f.history.AppendExchange(ctx, nil, doomed, "q2", "a2")
	require.NoError(t, err)
	require.NoError(t, f.history.DeleteSession(ctx, doomedSession, doomed))
	survivorSession, err := f.history.AppendExchange(ctx, nil, survivor, "q", "a")
	require.NoError(t, err)

	require.NoError(t, admin.DeleteUser(ctx, doomed))

	uow := f.factory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: doomed})
	require.NoError(t, err)
	assert.Nil(t, user)

	sessions, err := uow.ChatSessionRepository().Count(ctx, specification.UserOwnedBy{UserID: doomed})
	require.NoError(t, err)
	assert.Zero(t, sessions, "soft-deleted sessions are purged too")

	messages, err := uow.ChatMessageRepository().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, messages, "only the survivor's exchange remains")

	got, err := f.history.GetSession(ctx, survivorSession, survivor, true)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)

	assert.Contains(t, f.publisher.types(), constant.EventUserDeleted)

	err = admin.DeleteUser(ctx, doomed)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAdminService_ListSessionsIncludesInactive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := NewAdminService(f.factory, f.publisher, f.log, "")
	userId := f.newUser(t, "ada@example.com")

	kept, err := f.history.AppendExchange(ctx, nil, userId, "keep", "ok")
	require.NoError(t, err)
	removed, err := f.history.AppendExchange(ctx, nil, userId, "remove", "ok")
	require.NoError(t, err)
	require.NoError(t, f.history.DeleteSession(ctx, removed, userId))

	active, err := admin.ListSessions(ctx, userId, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, kept, active[0].Id)

	all, err := admin.ListSessions(ctx, userId, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		assert.EqualValues(t, 2, s.MessageCount)
		if s.Id == removed {
			assert.False(t, s.IsActive)
		}
	}
}

func TestAdminService_Users(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := NewAdminService(f.factory, f.publisher, f.log, "")
	userId := f.newUser(t, "ada@example.com")
	f.newUser(t, "bob@example.com")
	_, err := f.history.CreateSession(ctx, userId, nil)
	require.NoError(t, err)

	users, err := admin.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)

	found, err := admin.FindUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, userId, found.Id)
	assert.EqualValues(t, 1, found.SessionCount)

	require.NoError(t, admin.SetUserActive(ctx, userId, false))
	found, err = admin.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	err = admin.SetUserActive(ctx, uuid.New(), true)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = admin.FindUserByEmail(ctx, "ghost@example.com")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestAdminService_GetSystemLogs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	fileLog := logger.NewIsolatedLogger(logFile)
	fileLog.Info("ADMIN", "first", nil)
	fileLog.Error("ADMIN", "second", map[string]interface{}{"k": "v"})
	require.NoError(t, fileLog.Sync())

	_, err := os.Stat(logFile)
	require.NoError(t, err)

	admin := NewAdminService(nil, nil, logger.NewNopLogger(), logFile)
	entries, err := admin.GetSystemLogs("error", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Message)
}
