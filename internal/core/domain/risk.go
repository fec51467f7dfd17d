package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RiskLabel is the risk tier. The zero value is RiskLow and labels compare
// in tier order, so a label doubles as its class index.
type RiskLabel int

const (
	RiskLow RiskLabel = iota
	RiskMedium
	RiskHigh
)

// NumClasses is the number of risk tiers.
const NumClasses = 3

// MaxPersistedPercentage caps the confidence written to prediction history.
const MaxPersistedPercentage = 98.0

// Labels returns all risk tiers in order.
func Labels() []RiskLabel {
	return []RiskLabel{RiskLow, RiskMedium, RiskHigh}
}

func (l RiskLabel) String() string {
	switch l {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	}
	return fmt.Sprintf("RiskLabel(%d)", int(l))
}

// IsValid checks if the label is one of the three tiers
func (l RiskLabel) IsValid() bool {
	return l >= RiskLow && l <= RiskHigh
}

// ParseRiskLabel converts "Low", "Medium" or "High" into a RiskLabel.
func ParseRiskLabel(s string) (RiskLabel, error) {
	switch s {
	case "Low":
		return RiskLow, nil
	case "Medium":
		return RiskMedium, nil
	case "High":
		return RiskHigh, nil
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

func (l RiskLabel) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("invalid risk label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *RiskLabel) UnmarshalText(text []byte) error {
	parsed, err := ParseRiskLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// TrainingExample pairs a feature vector with its synthesized label.
type TrainingExample struct {
	Features FeatureVector
	Label    RiskLabel
}

// PredictionResult is the outcome of a single predict call.
type PredictionResult struct {
	Label         RiskLabel             `json:"risk_level"`
	Probabilities map[RiskLabel]float64 `json:"probabilities"`

	// Percentage is the winning probability * 100, unclamped.
	Percentage float64 `json:"percentage"`
	// PersistedPercentage is Percentage capped at MaxPersistedPercentage.
	PersistedPercentage float64 `json:"persisted_percentage"`
}

// PersistedPercentage applies the history cap to a display percentage.
func PersistedPercentage(percentage float64) float64 {
	if percentage > MaxPersistedPercentage {
		return MaxPersistedPercentage
	}
	return percentage
}

// PredictionRecord is one row of a user's prediction history.
type PredictionRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Inputs     string    `json:"inputs"`
	RiskLevel  RiskLabel `json:"risk_level"`
	Percentage float64   `json:"percentage"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPredictionRecord builds a history row from a prediction. Only the
// persisted percentage is recorded.
func NewPredictionRecord(userID uuid.UUID, inputs string, result *PredictionResult) (*PredictionRecord, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	return &PredictionRecord{
		ID:         uuid.New(),
		UserID:     userID,
		Inputs:     inputs,
		RiskLevel:  result.Label,
		Percentage: PersistedPercentage(result.Percentage),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
