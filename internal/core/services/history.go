package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"rabies-risk-service/internal/core/domain"
	ports "rabies-risk-service/internal/core/ports/output"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryService records predictions per user. A nil repository disables it.
type HistoryService struct {
	repo ports.PredictionRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(repo ports.PredictionRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Enabled reports whether a repository is configured.
func (s *HistoryService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Record stores the raw attributes and the persisted percentage of result.
func (s *HistoryService) Record(ctx context.Context, userID uuid.UUID, raw map[string]any, result *domain.PredictionResult) (*domain.PredictionRecord, error) {
	if !s.Enabled() {
		return nil, domain.ErrHistoryUnavailable
	}

	inputs, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal inputs: %w", err)
	}

	record, err := domain.NewPredictionRecord(userID, string(inputs), result)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"record_id":  record.ID,
		"user_id":    userID,
		"risk_level": record.RiskLevel.String(),
	}).Info("prediction recorded")
	return record, nil
}

// List returns the user's history newest first.
func (s *HistoryService) List(ctx context.Context, filter ports.HistoryFilter) ([]*domain.PredictionRecord, int, error) {
	if !s.Enabled() {
		return nil, 0, domain.ErrHistoryUnavailable
	}
	if filter.UserID == uuid.Nil {
		return nil, 0, domain.ErrMissingUserID
	}
	if filter.Offset < 0 || filter.Limit < 0 {
		return nil, 0, domain.ErrInvalidPagination
	}
	filter.Limit = PageSize(filter.Limit)
	return s.repo.ListByUser(ctx, filter)
}

// PageSize is the number of records List asks for given a requested limit:
// 0 means the default and anything above the maximum is capped.
func PageSize(limit int) int {
	switch {
	case limit == 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	}
	return limit
}

// Ping checks the repository connection.
func (s *HistoryService) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.Ping(ctx)
}
