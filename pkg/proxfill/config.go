package proxfill

import (
	"runtime"

	"github.com/wdm0006/proxfill/pkg/forest"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// EnsembleConfig is the hyperparameter surface of the default random
// forest ensemble. The zero value is not meaningful; start from
// DefaultEnsembleConfig.
type EnsembleConfig struct {
	// InitialTrees is the tree count of the first fit of every round.
	InitialTrees int
	// TreeIncrement is how many trees each growth step adds while the
	// out-of-bag score keeps improving.
	TreeIncrement int
	// MaxDepth limits tree depth; 0 grows full trees.
	MaxDepth int
	// MinSamplesSplit is the minimum node size eligible for splitting.
	MinSamplesSplit int
	// MinSamplesLeaf is the minimum sample count per child node.
	MinSamplesLeaf int
	// MinWeightFractionLeaf raises the effective leaf minimum to this
	// fraction of the training set.
	MinWeightFractionLeaf float64
	// MaxFeatures selects the per-split feature sampling strategy.
	MaxFeatures forest.FeatureSampling
	// MaxLeafNodes caps leaves per tree; 0 means no cap.
	MaxLeafNodes int
	// MinImpurityDecrease discards splits below this gain.
	MinImpurityDecrease float64
	// Workers is the parallelism hint for tree fitting; 0 uses all CPUs.
	Workers int
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64
}

// DefaultEnsembleConfig mirrors the defaults of the reference setup:
// 30 initial trees grown in increments of 20, conservative split/leaf
// minimums, sqrt feature sampling.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		InitialTrees:    30,
		TreeIncrement:   20,
		MinSamplesSplit: 20,
		MinSamplesLeaf:  20,
		MaxFeatures:     forest.SampleSqrt,
	}
}

// EnsembleFactory builds a fresh ensemble for a round, classification or
// regression depending on the target's type label.
type EnsembleFactory func(target typing.Label) Ensemble

func forestFactory(cfg EnsembleConfig) EnsembleFactory {
	return func(target typing.Label) Ensemble {
		task := forest.Regression
		if target == typing.Categorical {
			task = forest.Classification
		}
		workers := cfg.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		return forest.New(task,
			forest.NumTrees(cfg.InitialTrees),
			forest.MaxDepth(cfg.MaxDepth),
			forest.MinSplit(cfg.MinSamplesSplit),
			forest.MinLeaf(cfg.MinSamplesLeaf),
			forest.LeafWeightFraction(cfg.MinWeightFractionLeaf),
			forest.Features(cfg.MaxFeatures),
			forest.MaxLeafNodes(cfg.MaxLeafNodes),
			forest.MinImpurityDecrease(cfg.MinImpurityDecrease),
			forest.Workers(workers),
			forest.Seed(cfg.Seed),
		)
	}
}
