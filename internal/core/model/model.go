// Package model bundles a fitted transform and classifier into the artifact
// that the serving process loads at startup.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"rabies-risk-service/internal/core/classifier"
	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/preprocess"
)

// Metadata describes how an artifact was produced.
type Metadata struct {
	ID              uuid.UUID                `json:"id"`
	CreatedAt       time.Time                `json:"created_at"`
	ClassifierKind  string                   `json:"classifier_kind"`
	Features        []string                 `json:"features"`
	TrainingRows    int                      `json:"training_rows"`
	HoldoutRows     int                      `json:"holdout_rows"`
	HoldoutAccuracy float64                  `json:"holdout_accuracy"`
	ClassCounts     map[domain.RiskLabel]int `json:"class_counts"`
}

// TrainedModel is read-only once built or loaded and safe for concurrent use.
type TrainedModel struct {
	Metadata   Metadata
	Transform  *preprocess.FittedTransform
	Classifier classifier.Classifier
}

// PredictProba encodes v and returns the classifier's distribution. Errors
// are prefixed with the failing stage.
func (m *TrainedModel) PredictProba(v domain.FeatureVector) ([]float64, error) {
	row, err := m.Transform.Apply(v)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	proba, err := m.Classifier.PredictProba(row)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	return proba, nil
}

// Predict returns the most probable tier, ties going to the lower tier.
func (m *TrainedModel) Predict(v domain.FeatureVector) (domain.RiskLabel, []float64, error) {
	row, err := m.Transform.Apply(v)
	if err != nil {
		return 0, nil, fmt.Errorf("preprocess: %w", err)
	}
	label, proba, err := classifier.Predict(m.Classifier, row)
	if err != nil {
		return 0, nil, fmt.Errorf("classify: %w", err)
	}
	return label, proba, nil
}

func (m *TrainedModel) validate() error {
	if m.Transform == nil {
		return fmt.Errorf("missing transform")
	}
	if err := m.Transform.Validate(); err != nil {
		return err
	}
	if m.Classifier == nil {
		return fmt.Errorf("missing classifier")
	}
	if _, err := m.Classifier.PredictProba(make([]float64, m.Transform.Width())); err != nil {
		return fmt.Errorf("classifier does not accept transform output: %w", err)
	}
	return nil
}
