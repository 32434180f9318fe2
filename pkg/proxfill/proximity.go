package proxfill

import (
	"gonum.org/v1/gonum/mat"
)

// buildProximity derives the N x N sample-similarity matrix from per-tree
// terminal predictions: entry (i, j) is the fraction of trees in which
// rows i and j received the same terminal value. The result is symmetric
// with a unit diagonal and entries in [0, 1]. It is rebuilt from scratch
// every round; the ensemble changes under it.
func buildProximity(treePreds [][]float64, n int) *mat.SymDense {
	p := mat.NewSymDense(n, nil)
	for _, preds := range treePreds {
		groups := make(map[float64][]int)
		for row, label := range preds {
			groups[label] = append(groups[label], row)
		}
		for _, rows := range groups {
			for a := 0; a < len(rows); a++ {
				for b := a; b < len(rows); b++ {
					i, j := rows[a], rows[b]
					p.SetSym(i, j, p.At(i, j)+1)
				}
			}
		}
	}
	if t := float64(len(treePreds)); t > 0 {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				p.SetSym(i, j, p.At(i, j)/t)
			}
		}
	}
	return p
}

// distanceFrom returns 1 - proximity, element-wise.
func distanceFrom(p *mat.SymDense) *mat.SymDense {
	n := p.Symmetric()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d.SetSym(i, j, 1-p.At(i, j))
		}
	}
	return d
}
