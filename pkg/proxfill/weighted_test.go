package proxfill

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

func proxFromRows(rows [][]float64) *mat.SymDense {
	n := len(rows)
	p := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			p.SetSym(i, j, rows[i][j])
		}
	}
	return p
}

func TestWeightedAverageNormalizesProximities(t *testing.T) {
	col := frame.NewFloatColumn("v", 0)
	col.Append(0) // the missing row, value irrelevant
	col.Append(10)
	col.Append(20)
	prox := proxFromRows([][]float64{
		{1, 0.6, 0.4},
		{0.6, 1, 0},
		{0.4, 0, 1},
	})
	got := weightedAverage(col, prox, 0, 2)
	// (10*0.6 + 20*0.4) / (0.6+0.4) = 14
	if !got.Numeric || got.Num != 14 {
		t.Fatalf("expected 14, got %+v", got)
	}
}

func TestWeightedAverageTruncatesAtZeroPrecision(t *testing.T) {
	col := frame.NewFloatColumn("v", 0)
	col.Append(0)
	col.Append(10)
	col.Append(25)
	prox := proxFromRows([][]float64{
		{1, 0.5, 0.5},
		{0.5, 1, 0},
		{0.5, 0, 1},
	})
	got := weightedAverage(col, prox, 0, 0)
	// mean 17.5 truncates to 17
	if got.Num != 17 {
		t.Fatalf("expected 17, got %v", got.Num)
	}
}

func TestWeightedAverageFallsBackToUniform(t *testing.T) {
	col := frame.NewFloatColumn("v", 0)
	col.Append(0)
	col.Append(10)
	col.Append(30)
	prox := proxFromRows([][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	got := weightedAverage(col, prox, 0, 1)
	if got.Num != 20 {
		t.Fatalf("expected uniform mean 20, got %v", got.Num)
	}
}

func TestWeightedModePrefersCloserModality(t *testing.T) {
	col := frame.NewStringColumn("c", 0)
	for _, v := range []string{"low", "low", "high", "high", "low"} {
		col.Append(v)
	}
	// Row 4 sits next to the "high" rows despite "low" being more
	// frequent overall.
	prox := proxFromRows([][]float64{
		{1, 0.9, 0, 0, 0.1},
		{0.9, 1, 0, 0, 0.1},
		{0, 0, 1, 0.9, 0.8},
		{0, 0, 0.9, 1, 0.8},
		{0.1, 0.1, 0.8, 0.8, 1},
	})
	got := weightedMode(col, prox, 4)
	if got.Numeric || got.Mod != "high" {
		t.Fatalf("expected high, got %+v", got)
	}
}

func TestComputeWeightedValuesLeavesFrameUntouched(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "v", Type: frame.KindFloat, Nullable: true},
	}})
	for _, v := range []float64{5, 10, 20} {
		f.AppendNullRow()
		_ = f.SetCell(f.Rows()-1, "v", v)
	}
	preds := typing.Predictions{"v": typing.Numerical}
	prox := proxFromRows([][]float64{
		{1, 0.5, 0.5},
		{0.5, 1, 0},
		{0.5, 0, 1},
	})
	missing := []Cell{{Row: 0, Column: "v"}}
	subs, err := computeWeightedValues(f, preds, prox, missing, 1)
	if err != nil {
		t.Fatal(err)
	}
	col, _ := f.ColumnByName("v")
	if v, _ := frame.Float(col, 0); v != 5 {
		t.Fatalf("computation should not write the frame, cell became %v", v)
	}
	if err := commit(f, subs); err != nil {
		t.Fatal(err)
	}
	if v, _ := frame.Float(col, 0); math.Abs(v-15) > 1e-12 {
		t.Fatalf("expected 15 after commit, got %v", v)
	}
}
