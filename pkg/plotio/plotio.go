// Package plotio renders per-cell convergence charts for an imputation
// run: one PNG per tracked cell, line charts for numerical series and
// modality-frequency bars for categorical ones.
package plotio

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wdm0006/proxfill/pkg/proxfill"
)

// SaveHistories writes one chart per cell under
// dir/<subdir>/<column>/row_<R>_column_<C>.png. Use subdir "convergent"
// for the converged histories and "divergent" for the rest.
func SaveHistories(dir, subdir string, histories proxfill.Histories) error {
	for cell, series := range histories {
		out := filepath.Join(dir, subdir, cell.Column)
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		path := filepath.Join(out, fmt.Sprintf("row_%d_column_%s.png", cell.Row, cell.Column))
		if err := saveCell(path, cell, series); err != nil {
			return err
		}
	}
	return nil
}

func saveCell(path string, cell proxfill.Cell, series []proxfill.Value) error {
	if len(series) == 0 {
		return nil
	}
	if series[0].Numeric {
		return saveNumeric(path, cell, series)
	}
	return saveCategorical(path, cell, series)
}

// saveNumeric draws the substitute value per round as a line, with the
// series deviation in the title.
func saveNumeric(path string, cell proxfill.Cell, series []proxfill.Value) error {
	pts := make(plotter.XYs, len(series))
	nums := make([]float64, len(series))
	for i, v := range series {
		pts[i].X = float64(i + 1)
		pts[i].Y = v.Num
		nums[i] = v.Num
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s row %d, std=%.4f", cell.Column, cell.Row, stat.PopStdDev(nums, nil))
	p.X.Label.Text = "round"
	p.Y.Label.Text = "substitute"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// saveCategorical draws how often each modality was proposed across the
// series.
func saveCategorical(path string, cell proxfill.Cell, series []proxfill.Value) error {
	counts := make(map[string]int)
	var order []string
	for _, v := range series {
		if _, seen := counts[v.Mod]; !seen {
			order = append(order, v.Mod)
		}
		counts[v.Mod]++
	}
	heights := make(plotter.Values, len(order))
	for i, mod := range order {
		heights[i] = float64(counts[mod]) / float64(len(series))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s row %d", cell.Column, cell.Row)
	p.Y.Label.Text = "proportion of rounds"
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(heights, vg.Points(25))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(order...)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
