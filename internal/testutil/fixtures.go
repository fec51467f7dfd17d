package testutil

import (
	"time"

	"github.com/google/uuid"

	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/model"
	"rabies-risk-service/internal/core/preprocess"
	"rabies-risk-service/internal/core/synth"
)

// StubClassifier returns the same distribution for every input.
type StubClassifier struct {
	Proba []float64
	Calls int
}

func (s *StubClassifier) Kind() string { return "stub" }

func (s *StubClassifier) Fit([][]float64, []domain.RiskLabel) error { return nil }

func (s *StubClassifier) PredictProba([]float64) ([]float64, error) {
	s.Calls++
	return append([]float64(nil), s.Proba...), nil
}

// NewStubModel fits a transform on sampled vectors and pairs it with clf.
func NewStubModel(clf *StubClassifier) *model.TrainedModel {
	examples := synth.NewSampler(synth.DefaultSeed).Examples(200)
	vectors := make([]domain.FeatureVector, len(examples))
	for i, ex := range examples {
		vectors[i] = ex.Features
	}
	ft, err := preprocess.Fit(vectors)
	if err != nil {
		panic(err)
	}
	return &model.TrainedModel{
		Metadata: model.Metadata{
			ID:             uuid.New(),
			CreatedAt:      time.Now().UTC(),
			ClassifierKind: clf.Kind(),
			Features:       ft.FeatureNames(),
			TrainingRows:   len(vectors),
		},
		Transform:  ft,
		Classifier: clf,
	}
}

// HighRiskAttributes is a request body whose synthesized score is 1.2.
func HighRiskAttributes() map[string]any {
	return map[string]any{
		domain.FieldAge:               30,
		domain.FieldLocationRisk:      "High",
		domain.FieldAnimalType:        "Dog",
		domain.FieldBiteSeverity:      "Major",
		domain.FieldVaccinationStatus: "Unvaccinated",
		domain.FieldPEP:               "No",
		domain.FieldTimeSinceExposure: 60.0,
		domain.FieldWoundLocation:     "Head/Neck",
		domain.FieldAnimalVaccination: "Unvaccinated",
	}
}
