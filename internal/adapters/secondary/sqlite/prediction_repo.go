package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"rabies-risk-service/internal/core/domain"
	ports "rabies-risk-service/internal/core/ports/output"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	inputs      TEXT NOT NULL,
	risk_level  TEXT NOT NULL,
	percentage  REAL NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prediction_user_created ON prediction (user_id, created_at DESC);
`

type predictionRepo struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and applies the schema.
func Open(path string) (ports.PredictionRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.WithField("path", path).Debug("sqlite history store ready")
	return &predictionRepo{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (r *predictionRepo) Create(ctx context.Context, record *domain.PredictionRecord) error {
	query := `
		INSERT INTO prediction (id, user_id, inputs, risk_level, percentage, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(),
		record.UserID.String(),
		record.Inputs,
		record.RiskLevel.String(),
		record.Percentage,
		record.CreatedAt.UnixNano(),
	)
	if err != nil {
		var sqliteErr *sqlitedrv.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return domain.ErrPredictionConflict
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (r *predictionRepo) ListByUser(ctx context.Context, filter ports.HistoryFilter) ([]*domain.PredictionRecord, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prediction WHERE user_id = ?`, filter.UserID.String()).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	query := `
		SELECT id, user_id, inputs, risk_level, percentage, created_at
		FROM prediction
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, filter.UserID.String(), filter.Limit, filter.Offset)
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
	return r.db.PingContext(ctx)
}

func (r *predictionRepo) Close() error {
	return r.db.Close()
}

func scanRecord(rows *sql.Rows) (*domain.PredictionRecord, error) {
	var (
		id, userID, riskLevel string
		createdAt             int64
		record                domain.PredictionRecord
	)
	if err := rows.Scan(&id, &userID, &record.Inputs, &riskLevel, &record.Percentage, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if record.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if record.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	if record.RiskLevel, err = domain.ParseRiskLabel(riskLevel); err != nil {
		return nil, err
	}
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	return &record, nil
}
