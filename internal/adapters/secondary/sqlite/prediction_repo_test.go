package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rabies-risk-service/internal/core/domain"
	ports "rabies-risk-service/internal/core/ports/output"
)

func newRepo(t *testing.T) ports.PredictionRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "history", "predictions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(userID uuid.UUID, label domain.RiskLabel, pct float64, at time.Time) *domain.PredictionRecord {
	return &domain.PredictionRecord{
		ID:         uuid.New(),
		UserID:     userID,
		Inputs:     `{"Age":30}`,
		RiskLevel:  label,
		Percentage: pct,
		CreatedAt:  at,
	}
}

func TestPredictionRepo_CreateAndList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	user := uuid.New()
	other := uuid.New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := record(user, domain.RiskLow, 61.5, base)
	second := record(user, domain.RiskHigh, 98, base.Add(time.Minute))
	third := record(user, domain.RiskMedium, 72.25, base.Add(2*time.Minute))
	for _, r := range []*domain.PredictionRecord{first, second, third, record(other, domain.RiskHigh, 90, base)} {
		require.NoError(t, repo.Create(ctx, r))
	}

	records, total, err := repo.ListByUser(ctx, ports.HistoryFilter{UserID: user, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, records, 3)
	assert.Equal(t, third.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, first.ID, records[2].ID)

	assert.Equal(t, user, records[1].UserID)
	assert.Equal(t, domain.RiskHigh, records[1].RiskLevel)
	assert.Equal(t, 98.0, records[1].Percentage)
	assert.Equal(t, `{"Age":30}`, records[1].Inputs)
	assert.True(t, second.CreatedAt.Equal(records[1].CreatedAt))
}

func TestPredictionRepo_Pagination(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	user := uuid.New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, record(user, domain.RiskLow, float64(50+i), base.Add(time.Duration(i)*time.Second))))
	}

	records, total, err := repo.ListByUser(ctx, ports.HistoryFilter{UserID: user, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, records, 2)
	assert.Equal(t, 53.0, records[0].Percentage)
	assert.Equal(t, 52.0, records[1].Percentage)
}

func TestPredictionRepo_Empty(t *testing.T) {
	repo := newRepo(t)

	records, total, err := repo.ListByUser(context.Background(), ports.HistoryFilter{UserID: uuid.New(), Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, records)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestPredictionRepo_DuplicateID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	r := record(uuid.New(), domain.RiskLow, 40, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, r))
	assert.ErrorIs(t, repo.Create(ctx, r), domain.ErrPredictionConflict)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.db")
	user := uuid.New()

	repo, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), record(user, domain.RiskMedium, 66, time.Now().UTC())))
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	_, total, err := repo.ListByUser(context.Background(), ports.HistoryFilter{UserID: user, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
