package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/ports/output"
	"rabies-risk-service/internal/testutil"
)

func TestHistoryService_Record(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	userID := uuid.New()
	result := &domain.PredictionResult{Label: domain.RiskHigh, Percentage: 99.4, PersistedPercentage: 98}

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.PredictionRecord")).Return(nil)

	record, err := svc.Record(context.Background(), userID, testutil.HighRiskAttributes(), result)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, domain.RiskHigh, record.RiskLevel)
	assert.Equal(t, 98.0, record.Percentage)

	var inputs map[string]any
	require.NoError(t, json.Unmarshal([]byte(record.Inputs), &inputs))
	assert.Equal(t, "Head/Neck", inputs[domain.FieldWoundLocation])
	assert.Equal(t, float64(30), inputs[domain.FieldAge])
	repo.AssertExpectations(t)
}

func TestHistoryService_Record_MissingUser(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	_, err := svc.Record(context.Background(), uuid.Nil, testutil.HighRiskAttributes(), &domain.PredictionResult{})
	assert.ErrorIs(t, err, domain.ErrMissingUserID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHistoryService_Record_RepoError(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := svc.Record(context.Background(), uuid.New(), testutil.HighRiskAttributes(), &domain.PredictionResult{Label: domain.RiskLow})
	assert.EqualError(t, err, "connection refused")
}

func TestHistoryService_Disabled(t *testing.T) {
	svc := NewHistoryService(nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Record(context.Background(), uuid.New(), testutil.HighRiskAttributes(), &domain.PredictionResult{})
	assert.ErrorIs(t, err, domain.ErrHistoryUnavailable)

	_, _, err = svc.List(context.Background(), ports.HistoryFilter{UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrHistoryUnavailable)

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestHistoryService_List_DefaultLimit(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	filter := ports.HistoryFilter{UserID: uuid.New()}
	expected := filter
	expected.Limit = 20

	records := []*domain.PredictionRecord{{ID: uuid.New(), UserID: filter.UserID}}
	repo.On("ListByUser", mock.Anything, expected).Return(records, 1, nil)

	result, total, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, result, 1)
	repo.AssertExpectations(t)
}

func TestHistoryService_List_MaxLimit(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	filter := ports.HistoryFilter{UserID: uuid.New(), Limit: 500, Offset: 40}
	expected := filter
	expected.Limit = 100

	repo.On("ListByUser", mock.Anything, expected).Return([]*domain.PredictionRecord{}, 0, nil)

	_, _, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPageSize(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 20},
		{1, 1},
		{100, 100},
		{101, 100},
		{500, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageSize(tt.limit), "limit %d", tt.limit)
	}
}

func TestHistoryService_List_Invalid(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	_, _, err := svc.List(context.Background(), ports.HistoryFilter{})
	assert.ErrorIs(t, err, domain.ErrMissingUserID)

	_, _, err = svc.List(context.Background(), ports.HistoryFilter{UserID: uuid.New(), Offset: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPagination)

	repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestHistoryService_Ping(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	svc := NewHistoryService(repo)

	repo.On("Ping", mock.Anything).Return(errors.New("down"))
	assert.EqualError(t, svc.Ping(context.Background()), "down")
}
