package proxfill

import (
	"context"
	"errors"
	"testing"

	"github.com/wdm0006/proxfill/pkg/forest"
	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// clusteredFrame builds two well-separated groups whose label tracks the
// group. hole names the single cell to knock out.
func clusteredFrame(hole Cell) *frame.Frame {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "x", Type: frame.KindFloat, Nullable: true},
		{Name: "grade", Type: frame.KindString, Nullable: true},
		{Name: "label", Type: frame.KindString, Nullable: true},
	}})
	for i := 0; i < 20; i++ {
		f.AppendNullRow()
		if i < 10 {
			_ = f.SetCell(i, "x", 10+float64(i)*0.05)
			_ = f.SetCell(i, "grade", "low")
			_ = f.SetCell(i, "label", "a")
		} else {
			_ = f.SetCell(i, "x", 100+float64(i-10)*0.05)
			_ = f.SetCell(i, "grade", "high")
			_ = f.SetCell(i, "label", "b")
		}
	}
	if hole.Column != "" {
		c, _ := f.ColumnByName(hole.Column)
		c.SetNull(hole.Row)
	}
	return f
}

func testEnsembleConfig() EnsembleConfig {
	cfg := DefaultEnsembleConfig()
	cfg.InitialTrees = 20
	cfg.TreeIncrement = 0
	cfg.MinSamplesSplit = 2
	cfg.MinSamplesLeaf = 1
	cfg.MaxFeatures = forest.SampleAll
	cfg.Workers = 1
	cfg.Seed = 11
	return cfg
}

func TestRunImputesNumericCell(t *testing.T) {
	hole := Cell{Row: 3, Column: "x"}
	data := clusteredFrame(hole)
	im, err := New("label",
		WithDecimals(2),
		WithEnsembleConfig(testEnsembleConfig()),
	)
	if err != nil {
		t.Fatal(err)
	}
	out, err := im.Run(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}

	if out.NullCount() != 0 {
		t.Fatalf("expected a complete output, %d nulls remain", out.NullCount())
	}
	if data.NullCount() != 1 {
		t.Fatal("the input frame must stay untouched")
	}
	if out.Rows() != data.Rows() || out.Cols() != data.Cols() {
		t.Fatalf("output shape %dx%d differs from input %dx%d", out.Rows(), out.Cols(), data.Rows(), data.Cols())
	}

	x, _ := out.ColumnByName("x")
	if v, _ := frame.Float(x, 3); v < 9 || v > 12 {
		t.Fatalf("row 3 belongs to the low cluster, imputed x=%v", v)
	}
	// Untouched cells come through verbatim, target included.
	if v, _ := frame.Float(x, 0); v != 10 {
		t.Fatalf("observed cell changed to %v", v)
	}
	lbl, _ := out.ColumnByName("label")
	if m, _ := frame.Modality(lbl, 19); m != "b" {
		t.Fatalf("target column changed to %q", m)
	}

	verdict, ok := im.Verdicts()[hole]
	if !ok {
		t.Fatalf("expected a verdict for %v", hole)
	}
	if !verdict.Numeric || verdict.Num < 9 || verdict.Num > 12 {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
}

func TestRunImputesCategoricalCell(t *testing.T) {
	hole := Cell{Row: 12, Column: "grade"}
	im, err := New("label", WithEnsembleConfig(testEnsembleConfig()))
	if err != nil {
		t.Fatal(err)
	}
	out, err := im.Run(context.Background(), clusteredFrame(hole))
	if err != nil {
		t.Fatal(err)
	}
	g, _ := out.ColumnByName("grade")
	if m, _ := frame.Modality(g, 12); m != "high" {
		t.Fatalf("row 12 belongs to the high cluster, imputed grade=%q", m)
	}
	if v, ok := im.Verdicts()[hole]; !ok || v.Numeric || v.Mod != "high" {
		t.Fatalf("unexpected verdict %+v (ok=%v)", v, ok)
	}
}

func TestRunExposesStateAccessors(t *testing.T) {
	hole := Cell{Row: 3, Column: "x"}
	im, err := New("label", WithEnsembleConfig(testEnsembleConfig()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := im.Run(context.Background(), clusteredFrame(hole)); err != nil {
		t.Fatal(err)
	}

	if im.TargetType() != typing.Categorical {
		t.Fatalf("label should type as categorical, got %v", im.TargetType())
	}
	if got := im.FeatureTypes(); got["x"] != typing.Numerical || got["grade"] != typing.Categorical {
		t.Fatalf("unexpected feature types %v", got)
	}
	if _, ok := im.FeatureTypes()["label"]; ok {
		t.Fatal("the target must not appear among feature types")
	}
	if im.EncodedFeatures() == nil || len(im.EncodedFeatures().Rows) != 20 {
		t.Fatal("encoded feature matrix missing or misshapen")
	}
	if len(im.EncodedTarget()) != 20 || len(im.TargetClasses()) != 2 {
		t.Fatalf("encoded target %d rows, %d classes", len(im.EncodedTarget()), len(im.TargetClasses()))
	}

	p := im.ProximityMatrix()
	if p == nil || p.Symmetric() != 20 {
		t.Fatal("proximity matrix missing or misshapen")
	}
	d := im.DistanceMatrix()
	if d.At(0, 0) != 0 {
		t.Fatalf("self distance should be 0, got %v", d.At(0, 0))
	}
	if im.Model() == nil {
		t.Fatal("the last round's model should be retained")
	}

	histories := im.ConvergedHistories()
	series, ok := histories[hole]
	if !ok || len(series) == 0 {
		t.Fatalf("expected a converged history for %v", hole)
	}
	if v := im.Verdicts()[hole]; !v.Equal(series[len(series)-1]) {
		t.Fatal("the verdict should be the last substitute of the history")
	}
	if len(im.DivergentHistories()) != 0 {
		t.Fatalf("nothing should diverge here, got %v", im.DivergentHistories())
	}
}

// flipEnsemble alternates the terminal grouping of one row every fit so
// its categorical substitutes oscillate and never stabilize.
type flipEnsemble struct {
	fits int
}

func (f *flipEnsemble) Fit(X [][]float64, y []float64) error { f.fits++; return nil }
func (f *flipEnsemble) OOBScore() float64                    { return 0.5 }
func (f *flipEnsemble) TreeCount() int                       { return 1 }
func (f *flipEnsemble) SetTreeCount(n int)                   {}

func (f *flipEnsemble) TreePredictions(X [][]float64) [][]float64 {
	preds := make([]float64, len(X))
	half := len(X) / 2
	for i := range preds {
		group := 0.0
		if i >= half {
			group = 1
		}
		if f.fits%2 == 0 && i == 2 {
			group = 1 - group
		}
		preds[i] = group
	}
	return [][]float64{preds}
}

func TestRunFallsBackToModeOnStagnation(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "grade", Type: frame.KindString, Nullable: true},
		{Name: "label", Type: frame.KindString, Nullable: true},
	}})
	for i := 0; i < 10; i++ {
		f.AppendNullRow()
		if i < 5 {
			_ = f.SetCell(i, "grade", "low")
			_ = f.SetCell(i, "label", "a")
		} else {
			_ = f.SetCell(i, "grade", "high")
			_ = f.SetCell(i, "label", "b")
		}
	}
	c, _ := f.ColumnByName("grade")
	c.SetNull(2)

	cfg := DefaultEnsembleConfig()
	cfg.TreeIncrement = 0
	flip := &flipEnsemble{}
	im, err := New("label",
		WithEnsembleConfig(cfg),
		WithEnsembleFactory(func(typing.Label) Ensemble { return flip }),
	)
	if err != nil {
		t.Fatal(err)
	}
	out, err := im.Run(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}

	if len(im.Verdicts()) != 0 {
		t.Fatalf("an oscillating cell must not get a verdict, got %v", im.Verdicts())
	}
	cell := Cell{Row: 2, Column: "grade"}
	if _, ok := im.DivergentHistories()[cell]; !ok {
		t.Fatalf("expected %v among divergent histories", cell)
	}
	// The survivor is nulled before the fallback, so the remaining counts
	// are four "low" against five "high".
	g, _ := out.ColumnByName("grade")
	if m, _ := frame.Modality(g, 2); m != "high" {
		t.Fatalf("expected mode fallback high, got %q", m)
	}
	if out.NullCount() != 0 {
		t.Fatal("fallback must still complete the dataset")
	}
}

func TestRunAllowsForbiddenTarget(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "x", Type: frame.KindFloat, Nullable: true},
		{Name: "grade", Type: frame.KindString, Nullable: true},
		{Name: "label", Type: frame.KindInt, Nullable: true},
	}})
	for i := 0; i < 20; i++ {
		f.AppendNullRow()
		if i < 10 {
			_ = f.SetCell(i, "x", 10+float64(i)*0.05)
			_ = f.SetCell(i, "grade", "low")
			_ = f.SetCell(i, "label", int64(0))
		} else {
			_ = f.SetCell(i, "x", 100+float64(i-10)*0.05)
			_ = f.SetCell(i, "grade", "high")
			_ = f.SetCell(i, "label", int64(1))
		}
	}
	c, _ := f.ColumnByName("x")
	c.SetNull(3)

	// A forbidden list naming the target is valid input: the target is
	// excluded from target encoding, and rounds only encode features.
	im, err := New("label",
		WithForbidden("label"),
		WithDecimals(2),
		WithEnsembleConfig(testEnsembleConfig()),
	)
	if err != nil {
		t.Fatal(err)
	}
	out, err := im.Run(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if out.NullCount() != 0 {
		t.Fatalf("expected a complete output, %d nulls remain", out.NullCount())
	}
	x, _ := out.ColumnByName("x")
	if v, _ := frame.Float(x, 3); v < 9 || v > 12 {
		t.Fatalf("row 3 belongs to the low cluster, imputed x=%v", v)
	}
	if im.TargetClasses() != nil {
		t.Fatalf("a forbidden target must not be label-encoded, classes=%v", im.TargetClasses())
	}
}

func TestRunErrorTaxonomy(t *testing.T) {
	data := clusteredFrame(Cell{Row: 3, Column: "x"})

	im, _ := New("salary")
	var targetErr *TargetVariableNameError
	if _, err := im.Run(context.Background(), data); !errors.As(err, &targetErr) {
		t.Fatalf("expected TargetVariableNameError, got %v", err)
	}

	im, _ = New("label", WithForbidden("nope"))
	var nameErr *VariableNameError
	if _, err := im.Run(context.Background(), data); !errors.As(err, &nameErr) {
		t.Fatalf("expected VariableNameError, got %v", err)
	}

	complete := clusteredFrame(Cell{})
	im, _ = New("label")
	var noMissing *NoMissingValuesError
	if _, err := im.Run(context.Background(), complete); !errors.As(err, &noMissing) {
		t.Fatalf("expected NoMissingValuesError, got %v", err)
	}
}

func TestNewValidatesParameters(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("an empty target must be rejected")
	}
	if _, err := New("label", WithResilience(1)); err == nil {
		t.Fatal("resilience below 2 must be rejected")
	}
	if _, err := New("label", WithRounds(0)); err == nil {
		t.Fatal("zero rounds must be rejected")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	im, err := New("label", WithEnsembleConfig(testEnsembleConfig()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := im.Run(ctx, clusteredFrame(Cell{Row: 3, Column: "x"})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
