package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/backupgw/internal/domain/models"
)

type MockIdentityResolver struct {
	mock.Mock
}

func (m *MockIdentityResolver) ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func (m *MockIdentityResolver) HasRole(principal *models.Principal, role string) bool {
	args := m.Called(principal, role)
	return args.Bool(0)
}

func (m *MockIdentityResolver) HasAnyRole(principal *models.Principal, roles []string) bool {
	args := m.Called(principal, roles)
	return args.Bool(0)
}
