// Package repository 定义领域仓储接口
// 仓储接口遵循 DDD 原则，定义领域对象的持久化契约
package repository

import (
	"context"

	"github.com/turtacn/backupgw/internal/domain/models"
)

// UserRepository 定义用户仓储接口
// 实现类：internal/infrastructure/persistence/user_repo_impl.go
type UserRepository interface {
	// FindByID 根据用户 ID 查询用户
	// 用户不存在时返回 ErrUserNotFound
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername 根据登录名查询用户
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// Create 保存新用户
	Create(ctx context.Context, user *models.User) error
}
