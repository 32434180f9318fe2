package proxfill

// Ensemble is the external model capability the trainer drives: fit,
// out-of-bag quality, a mutable tree count, and per-tree terminal
// predictions for proximity building.
type Ensemble interface {
	Fit(X [][]float64, y []float64) error
	OOBScore() float64
	TreeCount() int
	SetTreeCount(n int)
	TreePredictions(X [][]float64) [][]float64
}

type logFunc func(format string, args ...any)

// growEnsemble fits the ensemble and keeps adding increment trees while
// the out-of-bag score strictly improves. The first non-improving fit is
// rolled back by restoring the best-scoring tree count, so the returned
// configuration is a local maximum along the growth path. At least one
// fit always happens.
func growEnsemble(e Ensemble, X [][]float64, y []float64, increment int, logf logFunc) error {
	prevScore := 0.0
	fitted := false
	bestCount := e.TreeCount()
	for {
		if err := e.Fit(X, y); err != nil {
			return err
		}
		score := e.OOBScore()
		if fitted {
			logf("oob score %.6f (%+.6f)", score, score-prevScore)
		} else {
			logf("oob score %.6f", score)
		}
		if fitted && score <= prevScore {
			// discard the last increment; the previous configuration won
			e.SetTreeCount(bestCount)
			logf("kept ensemble with %d trees, score %.6f", bestCount, prevScore)
			return nil
		}
		fitted = true
		prevScore = score
		bestCount = e.TreeCount()
		if increment <= 0 {
			logf("kept ensemble with %d trees, score %.6f", bestCount, prevScore)
			return nil
		}
		e.SetTreeCount(bestCount + increment)
	}
}
