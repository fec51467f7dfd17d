package services

import (
	log "github.com/sirupsen/logrus"

	"rabies-risk-service/internal/core/classifier"
	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/model"
)

// InferenceService serves predictions from a model loaded once at startup.
type InferenceService struct {
	model *model.TrainedModel
}

// NewInferenceService creates a new inference service
func NewInferenceService(m *model.TrainedModel) *InferenceService {
	return &InferenceService{model: m}
}

// Predict validates raw attributes and classifies them. Schema violations are
// returned untouched; later failures carry a "preprocess:" or "classify:" prefix.
func (s *InferenceService) Predict(raw map[string]any) (*domain.PredictionResult, error) {
	fv, err := domain.ParseFeatures(raw)
	if err != nil {
		return nil, err
	}
	return s.PredictVector(fv)
}

// PredictVector classifies an already validated vector.
func (s *InferenceService) PredictVector(fv domain.FeatureVector) (*domain.PredictionResult, error) {
	if s.model == nil {
		return nil, domain.ErrModelNotLoaded
	}
	if err := fv.Validate(); err != nil {
		return nil, err
	}

	label, proba, err := s.model.Predict(fv)
	if err != nil {
		return nil, err
	}

	percentage := proba[label] * 100

	log.WithFields(log.Fields{
		"risk_level": label.String(),
		"percentage": percentage,
	}).Debug("prediction computed")

	return &domain.PredictionResult{
		Label:               label,
		Probabilities:       classifier.Probabilities(proba),
		Percentage:          percentage,
		PersistedPercentage: domain.PersistedPercentage(percentage),
	}, nil
}

// Metadata describes the loaded model.
func (s *InferenceService) Metadata() (model.Metadata, error) {
	if s.model == nil {
		return model.Metadata{}, domain.ErrModelNotLoaded
	}
	return s.model.Metadata, nil
}
