package classifier

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"rabies-risk-service/internal/core/domain"
)

const leafFeature = -1

// Node is one entry of a flattened binary decision tree. Leaves have
// Feature == -1 and carry Value; internal nodes send x[Feature] <= Threshold
// to Left and everything else to Right.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a fitted CART tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *Tree) validate(width, valueLen int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Feature == leafFeature {
			if len(n.Value) != valueLen {
				return fmt.Errorf("node %d: leaf value has %d entries, want %d", i, len(n.Value), valueLen)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// children always come after their parent, which also rules out cycles
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// TreeParams bounds tree growth.
type TreeParams struct {
	MaxDepth       int `json:"max_depth"`
	MinSamplesLeaf int `json:"min_samples_leaf"`
	MaxFeatures    int `json:"max_features"`
}

// accumulator tracks the impurity of a multiset of sample indices.
type accumulator interface {
	reset()
	add(i int)
	sub(i int)
	count() int
	impurity() float64
}

type giniAccumulator struct {
	y      []domain.RiskLabel
	counts [domain.NumClasses]int
	n      int
}

func (a *giniAccumulator) reset() {
	a.counts = [domain.NumClasses]int{}
	a.n = 0
}

func (a *giniAccumulator) add(i int) {
	a.counts[a.y[i]]++
	a.n++
}

func (a *giniAccumulator) sub(i int) {
	a.counts[a.y[i]]--
	a.n--
}

func (a *giniAccumulator) count() int { return a.n }

func (a *giniAccumulator) impurity() float64 {
	if a.n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range a.counts {
		p := float64(c) / float64(a.n)
		sum += p * p
	}
	return 1 - sum
}

type mseAccumulator struct {
	y          []float64
	sum, sumSq float64
	n          int
}

func (a *mseAccumulator) reset() {
	a.sum, a.sumSq, a.n = 0, 0, 0
}

func (a *mseAccumulator) add(i int) {
	a.sum += a.y[i]
	a.sumSq += a.y[i] * a.y[i]
	a.n++
}

func (a *mseAccumulator) sub(i int) {
	a.sum -= a.y[i]
	a.sumSq -= a.y[i] * a.y[i]
	a.n--
}

func (a *mseAccumulator) count() int { return a.n }

func (a *mseAccumulator) impurity() float64 {
	if a.n == 0 {
		return 0
	}
	mean := a.sum / float64(a.n)
	v := a.sumSq/float64(a.n) - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

// builder grows one tree by greedy impurity reduction.
type builder struct {
	x         [][]float64
	params    TreeParams
	rng       *rand.Rand
	newAcc    func() accumulator
	leafValue func(idx []int) []float64
	nodes     []Node
}

func (b *builder) grow(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.build(idx, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

func (b *builder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature})

	whole := b.newAcc()
	for _, i := range idx {
		whole.add(i)
	}

	stop := whole.impurity() <= 1e-12 ||
		len(idx) < 2*max(b.params.MinSamplesLeaf, 1) ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth)
	if !stop {
		if feature, threshold, ok := b.bestSplit(idx, whole); ok {
			var left, right []int
			for _, i := range idx {
				if b.x[i][feature] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			l := b.build(left, depth+1)
			r := b.build(right, depth+1)
			b.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
			return id
		}
	}

	b.nodes[id].Value = b.leafValue(idx)
	return id
}

func (b *builder) candidateFeatures() []int {
	width := len(b.x[0])
	m := b.params.MaxFeatures
	if m <= 0 || m >= width || b.rng == nil {
		features := make([]int, width)
		for i := range features {
			features[i] = i
		}
		return features
	}
	features := b.rng.Perm(width)[:m]
	sort.Ints(features)
	return features
}

func (b *builder) bestSplit(idx []int, whole accumulator) (int, float64, bool) {
	minLeaf := max(b.params.MinSamplesLeaf, 1)
	n := len(idx)
	best := float64(n) * whole.impurity()
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, n)
	left, right := b.newAcc(), b.newAcc()
	for _, f := range b.candidateFeatures() {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(p, q int) bool {
			return b.x[sorted[p]][f] < b.x[sorted[q]][f]
		})

		left.reset()
		right.reset()
		for _, i := range sorted {
			right.add(i)
		}

		for k := 0; k < n-1; k++ {
			i := sorted[k]
			left.add(i)
			right.sub(i)

			lo, hi := b.x[i][f], b.x[sorted[k+1]][f]
			if lo == hi || left.count() < minLeaf || right.count() < minLeaf {
				continue
			}
			score := float64(left.count())*left.impurity() + float64(right.count())*right.impurity()
			if score < best-1e-12 {
				best = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
