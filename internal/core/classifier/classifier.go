// Package classifier holds the trainable risk-tier models. Every strategy
// satisfies Classifier, so the serving path never depends on which ensemble
// produced an artifact.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"rabies-risk-service/internal/core/domain"
)

const (
	KindRandomForest     = "random_forest"
	KindGradientBoosting = "gradient_boosting"
)

// Classifier maps an encoded feature vector to a probability per risk tier.
// PredictProba returns domain.NumClasses probabilities indexed by RiskLabel.
type Classifier interface {
	Kind() string
	Fit(x [][]float64, y []domain.RiskLabel) error
	PredictProba(x []float64) ([]float64, error)
}

// ProgressReporter is implemented by classifiers that fit in discrete steps.
type ProgressReporter interface {
	Steps() int
	OnStep(fn func())
}

// Config selects and parameterizes a strategy.
type Config struct {
	Kind           string
	Trees          int
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int
	Seed           uint64
}

// DefaultConfig returns a 100-tree random forest seeded with 42.
func DefaultConfig() Config {
	return Config{
		Kind:           KindRandomForest,
		Trees:          100,
		Rounds:         100,
		LearningRate:   0.1,
		MaxDepth:       0,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// New builds an unfitted classifier for cfg.Kind.
func New(cfg Config) (Classifier, error) {
	switch cfg.Kind {
	case KindRandomForest, "":
		return NewRandomForest(ForestParams{
			Trees:      cfg.Trees,
			TreeParams: TreeParams{MaxDepth: cfg.MaxDepth, MinSamplesLeaf: cfg.MinSamplesLeaf, MaxFeatures: cfg.MaxFeatures},
			Seed:       cfg.Seed,
		}), nil
	case KindGradientBoosting:
		depth := cfg.MaxDepth
		if depth <= 0 {
			depth = 3
		}
		return NewGradientBoosting(BoostingParams{
			Rounds:       cfg.Rounds,
			LearningRate: cfg.LearningRate,
			TreeParams:   TreeParams{MaxDepth: depth, MinSamplesLeaf: cfg.MinSamplesLeaf, MaxFeatures: cfg.MaxFeatures},
			Seed:         cfg.Seed,
		}), nil
	}
	return nil, fmt.Errorf("unknown classifier kind %q", cfg.Kind)
}

// Decode restores a fitted classifier persisted with json.Marshal.
func Decode(kind string, data json.RawMessage) (Classifier, error) {
	var c interface {
		Classifier
		validate() error
	}
	switch kind {
	case KindRandomForest:
		c = &RandomForest{}
	case KindGradientBoosting:
		c = &GradientBoosting{}
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", kind)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return c, nil
}

// Predict returns the most probable tier and the full distribution.
// Ties go to the lower tier.
func Predict(c Classifier, x []float64) (domain.RiskLabel, []float64, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return 0, nil, err
	}
	return domain.RiskLabel(floats.MaxIdx(proba)), proba, nil
}

// Probabilities converts an indexed distribution into a label map.
func Probabilities(proba []float64) map[domain.RiskLabel]float64 {
	out := make(map[domain.RiskLabel]float64, len(proba))
	for i, p := range proba {
		out[domain.RiskLabel(i)] = p
	}
	return out
}

func checkTrainingSet(x [][]float64, y []domain.RiskLabel) (int, error) {
	if len(x) == 0 {
		return 0, domain.TrainingError("empty training set")
	}
	if len(x) != len(y) {
		return 0, domain.TrainingError("%d rows but %d labels", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return 0, domain.TrainingError("rows have no features")
	}

	seen := make(map[domain.RiskLabel]bool)
	for i, row := range x {
		if len(row) != width {
			return 0, domain.TrainingError("row %d has %d features, want %d", i, len(row), width)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, domain.TrainingError("row %d has a non-finite feature", i)
			}
		}
		if !y[i].IsValid() {
			return 0, domain.TrainingError("row %d has invalid label %d", i, int(y[i]))
		}
		seen[y[i]] = true
	}
	if len(seen) < 2 {
		return 0, domain.TrainingError("degenerate training set: only class %s present", y[0])
	}
	return width, nil
}

func checkInput(x []float64, width int) error {
	if width == 0 {
		return domain.InvalidInputError("classifier is not fitted")
	}
	if len(x) != width {
		return domain.InvalidInputError("got %d features, want %d", len(x), width)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.InvalidInputError("feature %d is not finite", i)
		}
	}
	return nil
}

// normalize rescales p in place to sum to one.
func normalize(p []float64) {
	sum := floats.Sum(p)
	if sum <= 0 {
		for i := range p {
			p[i] = 1 / float64(len(p))
		}
		return
	}
	floats.Scale(1/sum, p)
}
