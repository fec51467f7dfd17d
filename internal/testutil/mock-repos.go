package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/ports/output"
)

// MockPredictionRepo is a mock of PredictionRepository.
type MockPredictionRepo struct {
	mock.Mock
}

func (m *MockPredictionRepo) Create(ctx context.Context, record *domain.PredictionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPredictionRepo) ListByUser(ctx context.Context, filter ports.HistoryFilter) ([]*domain.PredictionRecord, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.PredictionRecord), args.Int(1), args.Error(2)
}

func (m *MockPredictionRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPredictionRepo) Close() error {
	args := m.Called()
	return args.Error(0)
}
