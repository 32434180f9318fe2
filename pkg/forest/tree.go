package forest

import (
	"math"
	"math/rand"
	"sort"
)

type node struct {
	left, right *node
	feature     int
	threshold   float64
	leaf        bool
	value       float64
}

// Tree is a single fitted CART tree. Predict returns one terminal value
// per row; rows sharing a terminal value fell into the same leaf grouping
// for proximity purposes.
type Tree struct {
	root *node
}

func (t *Tree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		n := t.root
		for !n.leaf {
			if row[n.feature] <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out[i] = n.value
	}
	return out
}

type treeConfig struct {
	task                Task
	maxDepth            int // 0 = unlimited
	minSplit            int
	minLeaf             int
	maxFeatures         int
	maxLeafNodes        int // 0 = unlimited
	minImpurityDecrease float64
}

type grower struct {
	X      [][]float64
	y      []float64
	cfg    treeConfig
	rng    *rand.Rand
	leaves int
}

func growTree(X [][]float64, y []float64, inx []int, cfg treeConfig, rng *rand.Rand) *Tree {
	g := &grower{X: X, y: y, cfg: cfg, rng: rng}
	return &Tree{root: g.build(inx, 0)}
}

func (g *grower) build(inx []int, depth int) *node {
	if len(inx) < g.cfg.minSplit ||
		(g.cfg.maxDepth > 0 && depth >= g.cfg.maxDepth) ||
		(g.cfg.maxLeafNodes > 0 && g.leaves >= g.cfg.maxLeafNodes) ||
		g.pure(inx) {
		return g.makeLeaf(inx)
	}
	feature, threshold, gain := g.bestSplit(inx)
	if feature < 0 || gain < g.cfg.minImpurityDecrease {
		return g.makeLeaf(inx)
	}
	var left, right []int
	for _, i := range inx {
		if g.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.cfg.minLeaf || len(right) < g.cfg.minLeaf {
		return g.makeLeaf(inx)
	}
	n := &node{feature: feature, threshold: threshold}
	n.left = g.build(left, depth+1)
	n.right = g.build(right, depth+1)
	return n
}

func (g *grower) makeLeaf(inx []int) *node {
	g.leaves++
	return &node{leaf: true, value: g.leafValue(inx)}
}

func (g *grower) leafValue(inx []int) float64 {
	if g.cfg.task == Regression {
		sum := 0.0
		for _, i := range inx {
			sum += g.y[i]
		}
		return sum / float64(len(inx))
	}
	counts := make(map[float64]int)
	var best float64
	bestCount := -1
	for _, i := range inx {
		counts[g.y[i]]++
	}
	// deterministic scan over inx order, first-seen wins ties
	seen := make(map[float64]struct{})
	for _, i := range inx {
		c := g.y[i]
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if counts[c] > bestCount {
			bestCount = counts[c]
			best = c
		}
	}
	return best
}

func (g *grower) pure(inx []int) bool {
	first := g.y[inx[0]]
	for _, i := range inx[1:] {
		if g.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans a random subset of features for the threshold with the
// highest impurity decrease. Returns feature -1 when no valid split
// exists.
func (g *grower) bestSplit(inx []int) (int, float64, float64) {
	nFeatures := len(g.X[0])
	candidates := g.sampleFeatures(nFeatures)

	parent := g.impurity(inx)
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	sorted := make([]int, len(inx))
	for _, feat := range candidates {
		copy(sorted, inx)
		sort.Slice(sorted, func(a, b int) bool { return g.X[sorted[a]][feat] < g.X[sorted[b]][feat] })
		for cut := g.cfg.minLeaf; cut <= len(sorted)-g.cfg.minLeaf; cut++ {
			lo := g.X[sorted[cut-1]][feat]
			hi := g.X[sorted[cut]][feat]
			if lo == hi {
				continue
			}
			left := sorted[:cut]
			right := sorted[cut:]
			nl, nr := float64(len(left)), float64(len(right))
			n := nl + nr
			gain := parent - nl/n*g.impurity(left) - nr/n*g.impurity(right)
			if gain > bestGain {
				bestGain = gain
				bestFeature = feat
				bestThreshold = (lo + hi) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func (g *grower) sampleFeatures(nFeatures int) []int {
	k := g.cfg.maxFeatures
	if k <= 0 || k >= nFeatures {
		out := make([]int, nFeatures)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := g.rng.Perm(nFeatures)
	return perm[:k]
}

// impurity is gini for classification, variance for regression.
func (g *grower) impurity(inx []int) float64 {
	if g.cfg.task == Regression {
		mean := 0.0
		for _, i := range inx {
			mean += g.y[i]
		}
		mean /= float64(len(inx))
		ss := 0.0
		for _, i := range inx {
			d := g.y[i] - mean
			ss += d * d
		}
		return ss / float64(len(inx))
	}
	counts := make(map[float64]int)
	for _, i := range inx {
		counts[g.y[i]]++
	}
	n := float64(len(inx))
	gini := 1.0
	for _, c := range counts {
		p := float64(c) / n
		gini -= p * p
	}
	return gini
}

func sqrtFeatures(n int) int {
	k := int(math.Sqrt(float64(n)))
	if k < 1 {
		k = 1
	}
	return k
}

func log2Features(n int) int {
	k := int(math.Log2(float64(n)))
	if k < 1 {
		k = 1
	}
	return k
}
