package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/model"
)

type PredictResponse struct {
	RiskLevel     string             `json:"risk_level"`
	Percentage    float64            `json:"percentage"`
	Probabilities map[string]float64 `json:"probabilities"`
	RecordID      *uuid.UUID         `json:"record_id,omitempty"`
}

type PredictionRecordResponse struct {
	ID         uuid.UUID       `json:"id"`
	CreatedAt  string          `json:"created_at"`
	RiskLevel  string          `json:"risk_level"`
	Percentage float64         `json:"percentage"`
	Inputs     json.RawMessage `json:"inputs"`
}

type ListPredictionsResponse struct {
	Items      []PredictionRecordResponse `json:"items"`
	Total      int                        `json:"total"`
	PageSize   int                        `json:"page_size"`
	NextOffset *int                       `json:"next_offset,omitempty"`
}

type ModelInfoResponse struct {
	ID              uuid.UUID      `json:"id"`
	CreatedAt       string         `json:"created_at"`
	Classifier      string         `json:"classifier"`
	Features        []string       `json:"features"`
	TrainingRows    int            `json:"training_rows"`
	HoldoutRows     int            `json:"holdout_rows"`
	HoldoutAccuracy float64        `json:"holdout_accuracy"`
	ClassCounts     map[string]int `json:"class_counts"`
}

// ToPredictResponse exposes the display percentage. record is nil when
// history is disabled.
func ToPredictResponse(result *domain.PredictionResult, record *domain.PredictionRecord) PredictResponse {
	resp := PredictResponse{
		RiskLevel:     result.Label.String(),
		Percentage:    result.Percentage,
		Probabilities: make(map[string]float64, len(result.Probabilities)),
	}
	for label, p := range result.Probabilities {
		resp.Probabilities[label.String()] = p
	}
	if record != nil {
		resp.RecordID = &record.ID
	}
	return resp
}

func ToPredictionRecordResponse(r *domain.PredictionRecord) PredictionRecordResponse {
	return PredictionRecordResponse{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		RiskLevel:  r.RiskLevel.String(),
		Percentage: r.Percentage,
		Inputs:     json.RawMessage(r.Inputs),
	}
}

func ToModelInfoResponse(m model.Metadata) ModelInfoResponse {
	counts := make(map[string]int, len(m.ClassCounts))
	for label, n := range m.ClassCounts {
		counts[label.String()] = n
	}
	return ModelInfoResponse{
		ID:              m.ID,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		Classifier:      m.ClassifierKind,
		Features:        m.Features,
		TrainingRows:    m.TrainingRows,
		HoldoutRows:     m.HoldoutRows,
		HoldoutAccuracy: m.HoldoutAccuracy,
		ClassCounts:     counts,
	}
}
