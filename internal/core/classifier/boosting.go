package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"rabies-risk-service/internal/core/domain"
)

// minLogPrior keeps the raw score of a class absent from training finite.
const minLogPrior = -30.0

// BoostingParams configures GradientBoosting.
type BoostingParams struct {
	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`
	TreeParams
	Seed uint64 `json:"seed"`
}

// GradientBoosting fits one regression tree per class per round on the
// multinomial deviance gradient and predicts with a softmax over raw scores.
type GradientBoosting struct {
	Params BoostingParams `json:"params"`
	Width  int            `json:"width"`
	Prior  []float64      `json:"prior"`
	Stages [][]Tree       `json:"stages"`

	onStep func()
}

// NewGradientBoosting creates an unfitted booster.
func NewGradientBoosting(p BoostingParams) *GradientBoosting {
	if p.Rounds <= 0 {
		p.Rounds = 100
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 3
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = 1
	}
	return &GradientBoosting{Params: p}
}

func (g *GradientBoosting) Kind() string { return KindGradientBoosting }

func (g *GradientBoosting) Steps() int { return g.Params.Rounds }

func (g *GradientBoosting) OnStep(fn func()) { g.onStep = fn }

// Fit runs Params.Rounds boosting rounds starting from the log class priors.
func (g *GradientBoosting) Fit(x [][]float64, y []domain.RiskLabel) error {
	width, err := checkTrainingSet(x, y)
	if err != nil {
		return err
	}

	n := len(x)
	k := domain.NumClasses
	prior := make([]float64, k)
	for _, label := range y {
		prior[label]++
	}
	for c := range prior {
		if prior[c] == 0 {
			prior[c] = minLogPrior
			continue
		}
		prior[c] = math.Log(prior[c] / float64(n))
	}

	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = append([]float64(nil), prior...)
	}

	residual := make([]float64, n)
	proba := make([]float64, k)
	rng := rand.New(rand.NewPCG(g.Params.Seed, g.Params.Seed^0x9e3779b97f4a7c15))
	b := &builder{
		x:      x,
		params: g.Params.TreeParams,
		rng:    rng,
		newAcc: func() accumulator { return &mseAccumulator{y: residual} },
		leafValue: func(idx []int) []float64 {
			var num, den float64
			for _, i := range idx {
				r := residual[i]
				num += r
				den += math.Abs(r) * (1 - math.Abs(r))
			}
			if den < 1e-150 {
				return []float64{0}
			}
			return []float64{float64(k-1) / float64(k) * num / den}
		},
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	stages := make([][]Tree, 0, g.Params.Rounds)
	for m := 0; m < g.Params.Rounds; m++ {
		probs := make([][]float64, n)
		for i := range raw {
			softmax(raw[i], proba)
			probs[i] = append([]float64(nil), proba...)
		}

		stage := make([]Tree, k)
		for c := 0; c < k; c++ {
			for i := range residual {
				target := 0.0
				if int(y[i]) == c {
					target = 1
				}
				residual[i] = target - probs[i][c]
			}
			stage[c] = b.grow(all)
			for i := range raw {
				raw[i][c] += g.Params.LearningRate * stage[c].leaf(x[i])[0]
			}
		}
		stages = append(stages, stage)
		if g.onStep != nil {
			g.onStep()
		}
	}

	g.Width = width
	g.Prior = prior
	g.Stages = stages
	return nil
}

// PredictProba returns the softmax of the accumulated raw scores.
func (g *GradientBoosting) PredictProba(x []float64) ([]float64, error) {
	if err := checkInput(x, g.Width); err != nil {
		return nil, err
	}
	raw := append([]float64(nil), g.Prior...)
	for _, stage := range g.Stages {
		for c := range stage {
			raw[c] += g.Params.LearningRate * stage[c].leaf(x)[0]
		}
	}
	proba := make([]float64, domain.NumClasses)
	softmax(raw, proba)
	return proba, nil
}

func (g *GradientBoosting) validate() error {
	if g.Width <= 0 {
		return fmt.Errorf("booster width must be positive")
	}
	if len(g.Prior) != domain.NumClasses {
		return fmt.Errorf("booster prior has %d entries, want %d", len(g.Prior), domain.NumClasses)
	}
	if len(g.Stages) == 0 {
		return fmt.Errorf("booster has no stages")
	}
	for m, stage := range g.Stages {
		if len(stage) != domain.NumClasses {
			return fmt.Errorf("stage %d has %d trees, want %d", m, len(stage), domain.NumClasses)
		}
		for c := range stage {
			if err := stage[c].validate(g.Width, 1); err != nil {
				return fmt.Errorf("stage %d class %d: %w", m, c, err)
			}
		}
	}
	return nil
}

func softmax(raw, out []float64) {
	top := floats.Max(raw)
	for i, v := range raw {
		out[i] = math.Exp(v - top)
	}
	normalize(out)
}
