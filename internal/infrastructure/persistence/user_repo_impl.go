package persistence

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/repository"
	"github.com/turtacn/backupgw/pkg/logger"
)

// UserRepoImpl implements UserRepository using gorm.
type UserRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewUserRepository creates a new gorm-based user repository instance.
func NewUserRepository(db *gorm.DB, log logger.Logger) repository.UserRepository {
	return &UserRepoImpl{
		db:     db,
		logger: log.WithComponent("UserRepository"),
	}
}

// FindByID retrieves a user by primary key.
func (r *UserRepoImpl) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername retrieves a user by login name.
func (r *UserRepoImpl) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepoImpl) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		r.logger.Error(ctx, "Failed to query user", err)
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Create saves a new user, assigning an id when missing.
func (r *UserRepoImpl) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logger.Error(ctx, "Failed to create user", err, logger.String("username", user.Username))
		return fmt.Errorf("create user: %w", err)
	}

	r.logger.Info(ctx, "User created successfully",
		logger.String("user_id", user.ID),
		logger.String("username", user.Username),
		logger.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)
	return nil
}
