package proxfill

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// substitution is one computed replacement, not yet applied.
type substitution struct {
	cell  Cell
	value Value
}

// computeWeightedValues produces one substitute per still-missing cell
// from the round's proximity matrix. It reads the features frame but
// never writes it; commit applies the batch afterwards so every
// computation in a round sees the same pre-round snapshot.
func computeWeightedValues(features *frame.Frame, preds typing.Predictions, prox *mat.SymDense, missing []Cell, decimals int) ([]substitution, error) {
	subs := make([]substitution, 0, len(missing))
	for _, cell := range missing {
		col, ok := features.ColumnByName(cell.Column)
		if !ok {
			return nil, fmt.Errorf("proxfill: missing coordinate names unknown column %q", cell.Column)
		}
		var v Value
		if preds[cell.Column] == typing.Numerical {
			v = weightedAverage(col, prox, cell.Row, decimals)
		} else {
			v = weightedMode(col, prox, cell.Row)
		}
		subs = append(subs, substitution{cell: cell, value: v})
	}
	return subs, nil
}

// commit overwrites the features frame with the round's substitutes.
func commit(features *frame.Frame, subs []substitution) error {
	for _, s := range subs {
		if err := applyValue(features, s.cell, s.value); err != nil {
			return err
		}
	}
	return nil
}

// weightedAverage computes the proximity-weighted mean of every other
// row's value: the missing row's proximity vector with the self entry
// stripped, normalized to sum to 1, dotted with the other rows' values.
func weightedAverage(col frame.Column, prox *mat.SymDense, row, decimals int) Value {
	n := col.Len()
	weights := make([]float64, 0, n-1)
	values := make([]float64, 0, n-1)
	for j := 0; j < n; j++ {
		if j == row {
			continue
		}
		v, _ := frame.Float(col, j)
		weights = append(weights, prox.At(row, j))
		values = append(values, v)
	}
	sum := floats.Sum(weights)
	if sum == 0 {
		// no co-membership with any other row; weigh uniformly
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(weights))
	}
	wa := floats.Dot(values, weights) / sum
	return numValue(roundTo(wa, decimals))
}

// weightedMode scores every observed modality by its raw frequency
// proportion times a proximity-derived weight and keeps the maximum.
// Ties break toward the modality observed first in row order.
func weightedMode(col frame.Column, prox *mat.SymDense, row int) Value {
	n := col.Len()
	counts := make(map[string]int)
	var order []string
	for j := 0; j < n; j++ {
		m, ok := frame.Modality(col, j)
		if !ok {
			continue
		}
		if _, seen := counts[m]; !seen {
			order = append(order, m)
		}
		counts[m]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	allProx := 0.0
	for j := 0; j < n; j++ {
		allProx += prox.At(row, j)
	}

	best := ""
	bestScore := math.Inf(-1)
	for _, mod := range order {
		modProx := 0.0
		for j := 0; j < n; j++ {
			if j == row {
				continue
			}
			if m, ok := frame.Modality(col, j); ok && m == mod {
				modProx += prox.At(row, j)
			}
		}
		weight := 0.0
		if allProx > 0 {
			weight = modProx / allProx
		}
		proportion := float64(counts[mod]) / float64(total)
		if score := proportion * weight; score > bestScore {
			bestScore = score
			best = mod
		}
	}
	return modValue(best)
}

// roundTo rounds to the requested decimal precision; zero precision
// truncates to the integer part.
func roundTo(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Trunc(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
