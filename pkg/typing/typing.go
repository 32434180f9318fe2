// Package typing decides, per column, whether a variable is categorical
// or numerical. The imputation engine consumes the Oracle interface only;
// HeuristicOracle is the default implementation, built from per-column
// statistics.
package typing

import (
	"github.com/wdm0006/proxfill/pkg/frame"
)

// Label is a variable-type label.
type Label string

const (
	Categorical Label = "categorical"
	Numerical   Label = "numerical"
)

// Predictions maps column name to its predicted Label. Labels are
// determined once per run and held immutable afterwards.
type Predictions map[string]Label

// Oracle classifies every column of a frame.
type Oracle interface {
	Classify(f *frame.Frame) (Predictions, error)
}

// HeuristicOracle labels columns from their kind and value statistics:
// strings and bools are categorical, floats are numerical, and integer
// columns are categorical when their distinct-value set is small (codes
// rather than measurements).
type HeuristicOracle struct {
	// MaxDistinct is the largest distinct-value count an integer column
	// may have and still be considered categorical.
	MaxDistinct int
	// MaxDistinctRatio bounds distinct/non-null for the same decision.
	MaxDistinctRatio float64
}

// DefaultOracle returns a HeuristicOracle with the default thresholds.
func DefaultOracle() *HeuristicOracle {
	return &HeuristicOracle{MaxDistinct: 10, MaxDistinctRatio: 0.05}
}

func (o *HeuristicOracle) Classify(f *frame.Frame) (Predictions, error) {
	preds := make(Predictions, f.Cols())
	for _, name := range f.ColumnNames() {
		col, _ := f.ColumnByName(name)
		preds[name] = o.classifyColumn(col)
	}
	return preds, nil
}

func (o *HeuristicOracle) classifyColumn(c frame.Column) Label {
	switch c.Kind() {
	case frame.KindString, frame.KindBool:
		return Categorical
	case frame.KindFloat:
		return Numerical
	case frame.KindInt:
		distinct := make(map[int64]struct{})
		nonNull := 0
		ic := c.(*frame.IntColumn)
		for i := 0; i < ic.Len(); i++ {
			v, ok := ic.Get(i)
			if !ok {
				continue
			}
			nonNull++
			distinct[v] = struct{}{}
		}
		if nonNull == 0 {
			return Numerical
		}
		ratio := float64(len(distinct)) / float64(nonNull)
		if len(distinct) <= o.MaxDistinct && ratio <= o.MaxDistinctRatio {
			return Categorical
		}
		return Numerical
	}
	return Categorical
}
