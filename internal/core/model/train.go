package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"rabies-risk-service/internal/core/classifier"
	"rabies-risk-service/internal/core/domain"
	"rabies-risk-service/internal/core/preprocess"
)

// TrainOptions configures an offline training run.
type TrainOptions struct {
	Classifier   classifier.Config
	TestFraction float64
	Seed         uint64

	// OnStep is called after each tree or boosting round when set.
	OnStep func()
}

// DefaultTrainOptions holds out 20% of rows and trains the default forest.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Classifier:   classifier.DefaultConfig(),
		TestFraction: 0.2,
		Seed:         42,
	}
}

// ConfusionMatrix counts rows by [actual][predicted] tier.
type ConfusionMatrix [domain.NumClasses][domain.NumClasses]int

// Evaluation summarizes accuracy over a labelled set.
type Evaluation struct {
	Rows      int             `json:"rows"`
	Skipped   int             `json:"skipped"`
	Correct   int             `json:"correct"`
	Accuracy  float64         `json:"accuracy"`
	Confusion ConfusionMatrix `json:"confusion"`
}

// Train shuffles and splits examples, fits the transform and classifier on the
// training share and scores the hold-out share.
func Train(examples []domain.TrainingExample, opts TrainOptions) (*TrainedModel, *Evaluation, error) {
	if len(examples) == 0 {
		return nil, nil, domain.TrainingError("no training examples")
	}
	if opts.TestFraction < 0 || opts.TestFraction >= 1 {
		return nil, nil, domain.TrainingError("test fraction %v must be in [0, 1)", opts.TestFraction)
	}

	train, holdout := split(examples, opts.TestFraction, opts.Seed)
	if len(train) == 0 {
		return nil, nil, domain.TrainingError("split left no training rows")
	}

	vectors := make([]domain.FeatureVector, len(train))
	labels := make([]domain.RiskLabel, len(train))
	counts := make(map[domain.RiskLabel]int)
	for i, ex := range train {
		if err := ex.Features.Validate(); err != nil {
			return nil, nil, domain.TrainingError("example %d: %v", i, err)
		}
		vectors[i] = ex.Features
		labels[i] = ex.Label
		counts[ex.Label]++
	}

	transform, err := preprocess.Fit(vectors)
	if err != nil {
		return nil, nil, err
	}
	rows, err := transform.ApplyAll(vectors)
	if err != nil {
		return nil, nil, domain.TrainingError("encode training rows: %v", err)
	}

	clf, err := classifier.New(opts.Classifier)
	if err != nil {
		return nil, nil, domain.TrainingError("%v", err)
	}
	if pr, ok := clf.(classifier.ProgressReporter); ok && opts.OnStep != nil {
		pr.OnStep(opts.OnStep)
	}

	start := time.Now()
	if err := clf.Fit(rows, labels); err != nil {
		return nil, nil, err
	}
	log.WithFields(log.Fields{
		"classifier": clf.Kind(),
		"rows":       len(rows),
		"features":   transform.Width(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("classifier fitted")

	m := &TrainedModel{
		Metadata: Metadata{
			ID:             uuid.New(),
			CreatedAt:      time.Now().UTC(),
			ClassifierKind: clf.Kind(),
			Features:       transform.FeatureNames(),
			TrainingRows:   len(train),
			HoldoutRows:    len(holdout),
			ClassCounts:    counts,
		},
		Transform:  transform,
		Classifier: clf,
	}

	eval, err := Evaluate(m, holdout)
	if err != nil {
		return nil, nil, err
	}
	m.Metadata.HoldoutAccuracy = eval.Accuracy

	return m, eval, nil
}

// Evaluate scores m against labelled examples. Rows carrying a category the
// model never saw are counted as skipped.
func Evaluate(m *TrainedModel, examples []domain.TrainingExample) (*Evaluation, error) {
	eval := &Evaluation{}
	for _, ex := range examples {
		label, _, err := m.Predict(ex.Features)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownCategory) {
				eval.Skipped++
				continue
			}
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		eval.Rows++
		eval.Confusion[ex.Label][label]++
		if label == ex.Label {
			eval.Correct++
		}
	}
	if eval.Rows > 0 {
		eval.Accuracy = float64(eval.Correct) / float64(eval.Rows)
	}
	return eval, nil
}

func split(examples []domain.TrainingExample, testFraction float64, seed uint64) (train, holdout []domain.TrainingExample) {
	order := rand.New(rand.NewPCG(seed, seed)).Perm(len(examples))
	nTest := int(math.Round(float64(len(examples)) * testFraction))

	holdout = make([]domain.TrainingExample, 0, nTest)
	train = make([]domain.TrainingExample, 0, len(examples)-nTest)
	for i, j := range order {
		if i < nTest {
			holdout = append(holdout, examples[j])
		} else {
			train = append(train, examples[j])
		}
	}
	return train, holdout
}
