// Package forest implements a random forest classifier/regressor with
// out-of-bag scoring, per-tree terminal predictions, and warm-started
// tree growth. The imputation engine consumes it through the ensemble
// contract: fit, score, predict per tree, and a mutable tree count.
package forest

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Task selects between classification and regression.
type Task int

const (
	Classification Task = iota
	Regression
)

// FeatureSampling names a feature-subsetting strategy for splits.
type FeatureSampling string

const (
	SampleSqrt FeatureSampling = "sqrt"
	SampleLog2 FeatureSampling = "log2"
	SampleAll  FeatureSampling = "all"
)

// Forest is a warm-startable random forest. The zero value is not usable;
// construct with New.
type Forest struct {
	task                Task
	nTrees              int
	maxDepth            int
	minSplit            int
	minLeaf             int
	leafWeightFraction  float64
	sampling            FeatureSampling
	maxLeafNodes        int
	minImpurityDecrease float64
	workers             int
	rng                 *rand.Rand

	trees []*Tree
	oob   [][]bool // per tree: true where the row was out of bag
	x     [][]float64
	y     []float64
}

type Option func(*Forest)

// NumTrees sets the number of trees the next Fit will bring the forest to.
func NumTrees(n int) Option { return func(f *Forest) { f.nTrees = n } }

// MaxDepth limits tree depth; 0 grows full trees.
func MaxDepth(n int) Option { return func(f *Forest) { f.maxDepth = n } }

// MinSplit is the minimum node size eligible for splitting.
func MinSplit(n int) Option { return func(f *Forest) { f.minSplit = n } }

// MinLeaf is the minimum sample count of a child for a split to be kept.
func MinLeaf(n int) Option { return func(f *Forest) { f.minLeaf = n } }

// LeafWeightFraction raises the effective MinLeaf to this fraction of the
// training set.
func LeafWeightFraction(frac float64) Option {
	return func(f *Forest) { f.leafWeightFraction = frac }
}

// Features sets the feature-sampling strategy used at each split.
func Features(s FeatureSampling) Option { return func(f *Forest) { f.sampling = s } }

// MaxLeafNodes caps the number of leaves per tree; 0 means no cap.
func MaxLeafNodes(n int) Option { return func(f *Forest) { f.maxLeafNodes = n } }

// MinImpurityDecrease discards splits whose impurity gain falls below the
// threshold.
func MinImpurityDecrease(v float64) Option {
	return func(f *Forest) { f.minImpurityDecrease = v }
}

// Workers sets the number of goroutines fitting trees concurrently.
func Workers(n int) Option { return func(f *Forest) { f.workers = n } }

// Seed fixes the random source for reproducible forests; 0 seeds from the
// clock.
func Seed(seed int64) Option {
	return func(f *Forest) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// New returns a configured forest. Defaults: 10 trees, full depth,
// MinSplit 2, MinLeaf 1, sqrt feature sampling, one worker, clock seed.
func New(task Task, options ...Option) *Forest {
	f := &Forest{
		task:     task,
		nTrees:   10,
		minSplit: 2,
		minLeaf:  1,
		sampling: SampleSqrt,
		workers:  1,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Fit grows the forest up to its configured tree count. A repeat call
// with the same data warm-starts: existing trees are kept and only the
// missing ones are trained. Passing different data resets the forest.
func (f *Forest) Fit(X [][]float64, Y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("forest: empty training set")
	}
	if len(X) != len(Y) {
		return fmt.Errorf("forest: %d rows but %d labels", len(X), len(Y))
	}
	if !sameData(f.x, X) {
		f.trees = nil
		f.oob = nil
	}
	f.x = X
	f.y = Y
	if len(f.trees) >= f.nTrees {
		return nil
	}

	n := len(X)
	cfg := treeConfig{
		task:                f.task,
		maxDepth:            f.maxDepth,
		minSplit:            f.minSplit,
		minLeaf:             f.effectiveMinLeaf(n),
		maxFeatures:         f.featureCount(len(X[0])),
		maxLeafNodes:        f.maxLeafNodes,
		minImpurityDecrease: f.minImpurityDecrease,
	}

	missing := f.nTrees - len(f.trees)
	seeds := make([]int64, missing)
	for i := range seeds {
		seeds[i] = f.rng.Int63()
	}

	type fitted struct {
		slot int
		tree *Tree
		oob  []bool
	}
	workers := f.workers
	if workers < 1 {
		workers = 1
	}
	in := make(chan int)
	out := make(chan fitted, missing)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slot := range in {
				rng := rand.New(rand.NewSource(seeds[slot]))
				inx, inbag := bootstrap(n, rng)
				tree := growTree(X, Y, inx, cfg, rng)
				oob := make([]bool, n)
				for i := range oob {
					oob[i] = !inbag[i]
				}
				out <- fitted{slot: slot, tree: tree, oob: oob}
			}
		}()
	}
	go func() {
		for slot := 0; slot < missing; slot++ {
			in <- slot
		}
		close(in)
		wg.Wait()
		close(out)
	}()

	newTrees := make([]*Tree, missing)
	newOOB := make([][]bool, missing)
	for ft := range out {
		newTrees[ft.slot] = ft.tree
		newOOB[ft.slot] = ft.oob
	}
	f.trees = append(f.trees, newTrees...)
	f.oob = append(f.oob, newOOB...)
	return nil
}

// TreeCount reports the configured tree count.
func (f *Forest) TreeCount() int { return f.nTrees }

// SetTreeCount changes the configured tree count. Shrinking discards the
// most recently grown trees immediately; growing takes effect on the next
// Fit.
func (f *Forest) SetTreeCount(n int) {
	if n < 0 {
		n = 0
	}
	f.nTrees = n
	if len(f.trees) > n {
		f.trees = f.trees[:n]
		f.oob = f.oob[:n]
	}
}

// Trees returns the fitted trees.
func (f *Forest) Trees() []*Tree { return f.trees }

// TreePredictions runs every fitted tree over X and returns one
// prediction slice per tree.
func (f *Forest) TreePredictions(X [][]float64) [][]float64 {
	out := make([][]float64, len(f.trees))
	for i, t := range f.trees {
		out[i] = t.Predict(X)
	}
	return out
}

// OOBScore computes the out-of-bag quality of the current forest on the
// last fitted data: accuracy for classification, R-squared for
// regression. Rows that were in-bag for every tree are skipped.
func (f *Forest) OOBScore() float64 {
	if len(f.trees) == 0 || len(f.x) == 0 {
		return 0
	}
	n := len(f.x)
	preds := f.TreePredictions(f.x)

	if f.task == Classification {
		correct, scored := 0, 0
		for row := 0; row < n; row++ {
			votes := make(map[float64]int)
			for t := range f.trees {
				if f.oob[t][row] {
					votes[preds[t][row]]++
				}
			}
			if len(votes) == 0 {
				continue
			}
			best, bestCount := 0.0, -1
			for class, count := range votes {
				if count > bestCount || (count == bestCount && class < best) {
					best, bestCount = class, count
				}
			}
			scored++
			if best == f.y[row] {
				correct++
			}
		}
		if scored == 0 {
			return 0
		}
		return float64(correct) / float64(scored)
	}

	var sse, sst, mean float64
	scored := 0
	means := make([]float64, n)
	for row := 0; row < n; row++ {
		sum, count := 0.0, 0
		for t := range f.trees {
			if f.oob[t][row] {
				sum += preds[t][row]
				count++
			}
		}
		if count == 0 {
			means[row] = sentinelSkip
			continue
		}
		means[row] = sum / float64(count)
		mean += f.y[row]
		scored++
	}
	if scored == 0 {
		return 0
	}
	mean /= float64(scored)
	for row := 0; row < n; row++ {
		if means[row] == sentinelSkip {
			continue
		}
		d := f.y[row] - means[row]
		sse += d * d
		dt := f.y[row] - mean
		sst += dt * dt
	}
	if sst == 0 {
		return 0
	}
	return 1 - sse/sst
}

const sentinelSkip = -1e308

func (f *Forest) effectiveMinLeaf(n int) int {
	minLeaf := f.minLeaf
	if frac := int(f.leafWeightFraction * float64(n)); frac > minLeaf {
		minLeaf = frac
	}
	if minLeaf < 1 {
		minLeaf = 1
	}
	return minLeaf
}

func (f *Forest) featureCount(p int) int {
	switch f.sampling {
	case SampleLog2:
		return log2Features(p)
	case SampleAll:
		return p
	default:
		return sqrtFeatures(p)
	}
}

func bootstrap(n int, rng *rand.Rand) ([]int, []bool) {
	inx := make([]int, n)
	inbag := make([]bool, n)
	for i := range inx {
		j := rng.Intn(n)
		inx[i] = j
		inbag[j] = true
	}
	return inx, inbag
}

func sameData(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	// identity check is enough: the imputer re-encodes into fresh slices
	// each round, and a fresh slice means a fresh training set.
	return &a[0] == &b[0]
}
