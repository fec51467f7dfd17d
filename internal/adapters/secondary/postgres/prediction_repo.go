package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rabies-risk-service/internal/core/domain"
	ports "rabies-risk-service/internal/core/ports/output"
)

// Schema creates the prediction history table.
const Schema = `
CREATE TABLE IF NOT EXISTS prediction (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL,
	inputs      JSONB NOT NULL,
	risk_level  TEXT NOT NULL CHECK (risk_level IN ('Low', 'Medium', 'High')),
	percentage  DOUBLE PRECISION NOT NULL CHECK (percentage >= 0 AND percentage <= 98),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_prediction_user_created ON prediction (user_id, created_at DESC);
`

type predictionRepo struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository wraps pool. The repository takes ownership of it.
func NewPredictionRepository(pool *pgxpool.Pool) ports.PredictionRepository {
	return &predictionRepo{pool: pool}
}

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply prediction schema: %w", err)
	}
	return nil
}

func (r *predictionRepo) Create(ctx context.Context, record *domain.PredictionRecord) error {
	query := `
		INSERT INTO prediction (id, user_id, inputs, risk_level, percentage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Inputs,
		record.RiskLevel.String(),
		record.Percentage,
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrPredictionConflict
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (r *predictionRepo) ListByUser(ctx context.Context, filter ports.HistoryFilter) ([]*domain.PredictionRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prediction WHERE user_id = $1`, filter.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	query := `
		SELECT id, user_id, inputs::text, risk_level, percentage, created_at
		FROM prediction
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	records := []*domain.PredictionRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan prediction row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return records, total, nil
}

func (r *predictionRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *predictionRepo) Close() error {
	r.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*domain.PredictionRecord, error) {
	var (
		record    domain.PredictionRecord
		riskLevel string
	)
	if err := row.Scan(&record.ID, &record.UserID, &record.Inputs, &riskLevel, &record.Percentage, &record.CreatedAt); err != nil {
		return nil, err
	}

	label, err := domain.ParseRiskLabel(riskLevel)
	if err != nil {
		return nil, err
	}
	record.RiskLevel = label
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}
