package ports

import (
	"context"

	"github.com/google/uuid"

	"rabies-risk-service/internal/core/domain"
)

type HistoryFilter struct {
	UserID uuid.UUID
	Limit  int
	Offset int
}

// PredictionRepository stores the prediction history of each user.
type PredictionRepository interface {
	Create(ctx context.Context, record *domain.PredictionRecord) error
	// ListByUser returns the user's records newest first and the total count.
	ListByUser(ctx context.Context, filter HistoryFilter) ([]*domain.PredictionRecord, int, error)
	Ping(ctx context.Context) error
	Close() error
}
