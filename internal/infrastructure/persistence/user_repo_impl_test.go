package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/turtacn/backupgw/internal/config"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/repository"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
		AutoMigrate:  true,
	}
	db, err := NewDBConnection(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	user := &models.User{Username: "alice", PasswordHash: "$argon2id$..."}
	user.SetRoles([]string{"ROLE_USER", "ROLE_ADMIN"})
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, byID.RoleList())

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), logger.NewNoopLogger())

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = repo.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "bob", PasswordHash: "x"}))
	assert.Error(t, repo.Create(ctx, &models.User{Username: "bob", PasswordHash: "y"}))
}

func TestNewDBConnection_UnsupportedDriver(t *testing.T) {
	_, err := NewDBConnection(context.Background(), &config.DatabaseConfig{Driver: "oracle"}, logger.NewNoopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}
