// Package mocks provides testify mock implementations shared across test suites.
package mocks

import (
	"context"

	"github.com/dukex/queryflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockContextRepository is a mock implementation of persistence.ContextRepository interface.
type MockContextRepository struct {
	mock.Mock
}

func (m *MockContextRepository) SaveContext(ctx context.Context, wctx *models.Context) error {
	args := m.Called(ctx, wctx)

	return args.Error(0)
}

func (m *MockContextRepository) ContextByID(ctx context.Context, id string) (*models.Context, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Context), args.Error(1)
}

func (m *MockContextRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockContextRepository) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
