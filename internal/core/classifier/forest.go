package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"

	"rabies-risk-service/internal/core/domain"
)

// ForestParams configures a RandomForest. MaxFeatures of zero means the
// square root of the input width.
type ForestParams struct {
	Trees int `json:"trees"`
	TreeParams
	Seed uint64 `json:"seed"`
}

// RandomForest averages the class distributions of bootstrapped gini trees.
type RandomForest struct {
	Params ForestParams `json:"params"`
	Width  int          `json:"width"`
	Forest []Tree       `json:"forest"`

	onStep func()
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(p ForestParams) *RandomForest {
	if p.Trees <= 0 {
		p.Trees = 100
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = 1
	}
	return &RandomForest{Params: p}
}

func (f *RandomForest) Kind() string { return KindRandomForest }

func (f *RandomForest) Steps() int { return f.Params.Trees }

func (f *RandomForest) OnStep(fn func()) { f.onStep = fn }

// Fit grows Params.Trees trees, each on a bootstrap sample of the rows.
func (f *RandomForest) Fit(x [][]float64, y []domain.RiskLabel) error {
	width, err := checkTrainingSet(x, y)
	if err != nil {
		return err
	}

	params := f.Params
	if params.MaxFeatures <= 0 {
		params.MaxFeatures = max(1, int(math.Sqrt(float64(width))))
	}

	rng := rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15))
	b := &builder{
		x:      x,
		params: params.TreeParams,
		rng:    rng,
		newAcc: func() accumulator { return &giniAccumulator{y: y} },
		leafValue: func(idx []int) []float64 {
			dist := make([]float64, domain.NumClasses)
			for _, i := range idx {
				dist[y[i]]++
			}
			for k := range dist {
				dist[k] /= float64(len(idx))
			}
			return dist
		},
	}

	n := len(x)
	forest := make([]Tree, 0, params.Trees)
	sample := make([]int, n)
	for t := 0; t < params.Trees; t++ {
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		forest = append(forest, b.grow(sample))
		if f.onStep != nil {
			f.onStep()
		}
	}

	f.Params = params
	f.Width = width
	f.Forest = forest
	return nil
}

// PredictProba averages leaf distributions across the forest.
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if err := checkInput(x, f.Width); err != nil {
		return nil, err
	}
	proba := make([]float64, domain.NumClasses)
	for i := range f.Forest {
		for k, p := range f.Forest[i].leaf(x) {
			proba[k] += p
		}
	}
	normalize(proba)
	return proba, nil
}

func (f *RandomForest) validate() error {
	if f.Width <= 0 {
		return fmt.Errorf("forest width must be positive")
	}
	if len(f.Forest) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i := range f.Forest {
		if err := f.Forest[i].validate(f.Width, domain.NumClasses); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
