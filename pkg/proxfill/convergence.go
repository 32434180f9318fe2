package proxfill

import (
	"gonum.org/v1/gonum/stat"
)

// stability computes the convergence statistic over the last window
// entries of a history: population standard deviation for numerical
// series, and for categorical series 0 when all entries agree and 1
// otherwise (deviation is undefined for modalities, identity agreement
// stands in for it).
func stability(history []Value, window int) float64 {
	if len(history) == 0 {
		return 1
	}
	if window < 1 {
		window = 1
	}
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	last := history[start:]

	if last[0].Numeric {
		nums := make([]float64, len(last))
		for i, v := range last {
			nums[i] = v.Num
		}
		return stat.PopStdDev(nums, nil)
	}
	for _, v := range last[1:] {
		if !v.Equal(last[0]) {
			return 1
		}
	}
	return 0
}

// isConverged judges a cell stable: numerical when the deviation sits in
// [0, 1), categorical when the window is in full agreement.
func isConverged(numeric bool, s float64) bool {
	if numeric {
		return s >= 0 && s < 1
	}
	return s == 0
}
