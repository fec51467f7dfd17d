// Package synth generates labelled synthetic training data.
package synth

import "rabies-risk-service/internal/core/domain"

// Score increments are kept in tenths so boundary comparisons are exact.
const (
	locationHighTenths    = 3
	unvaccinatedDogTenths = 3
	majorBiteTenths       = 2
	noPEPTenths           = 2
	headNeckWoundTenths   = 1
	lateExposureTenths    = 1
	lateExposureHours     = 48.0
	highThresholdTenths   = 6
	mediumThresholdTenths = 3
)

func scoreTenths(v domain.FeatureVector) int {
	score := 0
	if v.LocationRisk == domain.LocationHigh {
		score += locationHighTenths
	}
	if v.AnimalType == domain.AnimalDog && v.AnimalVaccination == domain.AnimalUnvaccinated {
		score += unvaccinatedDogTenths
	}
	if v.BiteSeverity == domain.BiteMajor {
		score += majorBiteTenths
	}
	if v.PEP == domain.PEPNo {
		score += noPEPTenths
	}
	if v.WoundLocation == domain.WoundHeadNeck {
		score += headNeckWoundTenths
	}
	if v.TimeSinceExposure > lateExposureHours {
		score += lateExposureTenths
	}
	return score
}

// Score returns the additive heuristic score for v, between 0 and 1.2.
func Score(v domain.FeatureVector) float64 {
	return float64(scoreTenths(v)) / 10
}

// AssignRisk maps a feature vector to its synthetic ground-truth tier:
// above 0.6 is High, above 0.3 is Medium, anything else Low.
func AssignRisk(v domain.FeatureVector) domain.RiskLabel {
	score := scoreTenths(v)
	switch {
	case score > highThresholdTenths:
		return domain.RiskHigh
	case score > mediumThresholdTenths:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// Label pairs each vector with AssignRisk's tier.
func Label(vectors []domain.FeatureVector) []domain.TrainingExample {
	examples := make([]domain.TrainingExample, len(vectors))
	for i, v := range vectors {
		examples[i] = domain.TrainingExample{Features: v, Label: AssignRisk(v)}
	}
	return examples
}
