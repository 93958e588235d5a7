package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/entity"
	"bitbraniac-be/internal/model"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/repository/specification"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*app, unitofwork.RepositoryFactory) {
	t.Helper()
	color.NoColor = true

	cfg := &config.Config{}
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.Connection = filepath.Join(t.TempDir(), "admin.db")
	cfg.App.LogFilePath = filepath.Join(t.TempDir(), "app.log")

	a := &app{cfg: cfg, log: logger.NewNopLogger()}
	_, err := a.adminService()
	require.NoError(t, err)
	require.NoError(t, database.Migrate(a.db, model.All()...))
	t.Cleanup(a.close)

	return a, unitofwork.NewRepositoryFactory(a.db)
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedUserWithSession(t *testing.T, factory unitofwork.RepositoryFactory, email string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)
	now := time.Now().UTC()
	user := &entity.User{Id: uuid.New(), Email: email, PasswordHash: "x", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	title := "Sorting"
	require.NoError(t, uow.ChatSessionRepository().Create(ctx, &entity.ChatSession{
		Id: uuid.New(), UserId: user.Id, Title: &title, IsActive: false, CreatedAt: now, UpdatedAt: now,
	}))
	return user.Id
}

func TestAdminCLI_Users(t *testing.T) {
	a, factory := newTestApp(t)
	userId := seedUserWithSession(t, factory, "ada@example.com")

	out, err := run(t, a, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, userId.String())

	_, err = run(t, a, "users", "deactivate", "ada@example.com")
	require.NoError(t, err)
	user, err := factory.NewUnitOfWork(context.Background()).UserRepository().FindOne(context.Background(), specification.ByID{ID: userId})
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	_, err = run(t, a, "users", "delete", userId.String())
	assert.Error(t, err, "delete requires --yes")

	_, err = run(t, a, "users", "delete", userId.String(), "--yes")
	require.NoError(t, err)
	user, err = factory.NewUnitOfWork(context.Background()).UserRepository().FindOne(context.Background(), specification.ByID{ID: userId})
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAdminCLI_SessionsIncludeSoftDeleted(t *testing.T) {
	a, factory := newTestApp(t)
	seedUserWithSession(t, factory, "ada@example.com")

	out, err := run(t, a, "sessions", "list", "ada@example.com")
	require.NoError(t, err)
	assert.NotContains(t, out, "Sorting")

	out, err = run(t, a, "sessions", "list", "ada@example.com", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Sorting")
	assert.Contains(t, out, "deleted")
}

func TestAdminCLI_EventsNeedNats(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := run(t, a, "events", "tail")
	assert.Error(t, err)
}
