package synth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"rabies-risk-service/internal/core/domain"
)

const (
	DefaultSampleCount = 3000
	DefaultSeed        = 42
)

const (
	maxAge            = 100
	meanExposureHours = 100.0
	maxExposureHours  = 720.0
)

// marginal is a categorical distribution over the values of one field.
type marginal struct {
	values  []string
	weights []float64
}

var (
	locationMarginal  = marginal{[]string{"High", "Medium", "Low"}, []float64{0.4, 0.3, 0.3}}
	animalMarginal    = marginal{[]string{"Dog", "Cat", "Wildlife", "None"}, []float64{0.8, 0.1, 0.08, 0.02}}
	biteMarginal      = marginal{[]string{"None", "Minor", "Major"}, []float64{0.2, 0.5, 0.3}}
	patientMarginal   = marginal{[]string{"Vaccinated", "Unvaccinated", "Partial"}, []float64{0.3, 0.6, 0.1}}
	pepMarginal       = marginal{[]string{"Yes", "No"}, []float64{0.4, 0.6}}
	woundMarginal     = marginal{[]string{"Head/Neck", "Upper Body", "Lower Body", "None"}, []float64{0.15, 0.35, 0.3, 0.2}}
	animalVaxMarginal = marginal{[]string{"Vaccinated", "Unvaccinated", "Unknown"}, []float64{0.2, 0.5, 0.3}}
)

// category draws values from a marginal.
type category struct {
	values []string
	dist   distuv.Categorical
}

func newCategory(m marginal, src rand.Source) category {
	return category{values: m.values, dist: distuv.NewCategorical(m.weights, src)}
}

func (c category) draw() string {
	return c.values[int(c.dist.Rand())]
}

// Sampler draws synthetic exposure incidents. Two samplers built with the
// same seed produce the same sequence.
type Sampler struct {
	rng       *rand.Rand
	exposure  distuv.Exponential
	location  category
	animal    category
	bite      category
	patient   category
	pep       category
	wound     category
	animalVax category
}

// NewSampler creates a Sampler seeded with seed. Every distribution shares
// one PCG stream.
func NewSampler(seed uint64) *Sampler {
	src := rand.NewPCG(seed, seed)
	return &Sampler{
		rng:       rand.New(src),
		exposure:  distuv.Exponential{Rate: 1 / meanExposureHours, Src: src},
		location:  newCategory(locationMarginal, src),
		animal:    newCategory(animalMarginal, src),
		bite:      newCategory(biteMarginal, src),
		patient:   newCategory(patientMarginal, src),
		pep:       newCategory(pepMarginal, src),
		wound:     newCategory(woundMarginal, src),
		animalVax: newCategory(animalVaxMarginal, src),
	}
}

// Sample draws one feature vector.
func (s *Sampler) Sample() domain.FeatureVector {
	exposure := s.exposure.Rand()
	if exposure > maxExposureHours {
		exposure = maxExposureHours
	}

	return domain.FeatureVector{
		Age:               s.rng.IntN(maxAge),
		LocationRisk:      domain.LocationRisk(s.location.draw()),
		AnimalType:        domain.AnimalType(s.animal.draw()),
		BiteSeverity:      domain.BiteSeverity(s.bite.draw()),
		VaccinationStatus: domain.VaccinationStatus(s.patient.draw()),
		PEP:               domain.PEPStatus(s.pep.draw()),
		TimeSinceExposure: exposure,
		WoundLocation:     domain.WoundLocation(s.wound.draw()),
		AnimalVaccination: domain.AnimalVaccination(s.animalVax.draw()),
	}
}

// Examples draws n vectors and labels each with AssignRisk.
func (s *Sampler) Examples(n int) []domain.TrainingExample {
	vectors := make([]domain.FeatureVector, n)
	for i := range vectors {
		vectors[i] = s.Sample()
	}
	return Label(vectors)
}
