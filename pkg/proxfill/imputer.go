// Package proxfill imputes missing values in a labeled tabular dataset
// by exploiting the proximity structure of a tree ensemble trained on the
// partially imputed data, iterating until the substituted values
// stabilize. Rows with a target value are required; out-of-sample rows
// are not handled.
package proxfill

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/wdm0006/proxfill/pkg/encode"
	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/io/csvio"
	"github.com/wdm0006/proxfill/pkg/io/parquetio"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// Imputer owns all mutable state of one imputation run and is the sole
// mutator of the working feature frame. Construct with New, execute with
// Run; accessors are valid after Run returns.
type Imputer struct {
	target     string
	rounds     int
	window     int
	decimals   int
	resilience int
	forbidden  []string
	ordinal    []string
	output     string
	cfg        EnsembleConfig
	oracle     typing.Oracle
	factory    EnsembleFactory
	logf       logFunc

	// forbidden/ordinal with the target removed; rounds encode with these
	featForbidden []string
	featOrdinal   []string
	features      *frame.Frame
	targetCol     frame.Column
	featTypes     typing.Predictions
	targetType    typing.Label
	encoded       *encode.Matrix
	encodedY      []float64
	classes       []string
	prox          *mat.SymDense
	dist          *mat.SymDense
	ensemble      Ensemble
	missing       []Cell
	totalMissing  int
	active        Histories
	divergent     Histories
	convergedH    Histories
	verdicts      map[Cell]Value
	totalRounds   int
}

type Option func(*Imputer)

// WithRounds sets how many imputation rounds run per convergence check
// block. Default 4.
func WithRounds(n int) Option { return func(im *Imputer) { im.rounds = n } }

// WithWindow sets the convergence window: how many of the most recent
// substitutes are examined for stability. Default 4.
func WithWindow(n int) Option { return func(im *Imputer) { im.window = n } }

// WithDecimals sets the rounding precision of numerical substitutes;
// zero truncates to integers. Default 0.
func WithDecimals(n int) Option { return func(im *Imputer) { im.decimals = n } }

// WithResilience sets how many consecutive equal "remaining missing
// count" observations declare stagnation. Must be at least 2. Default 2.
func WithResilience(n int) Option { return func(im *Imputer) { im.resilience = n } }

// WithForbidden excludes columns from one-hot/ordinal encoding; their raw
// values pass through.
func WithForbidden(cols ...string) Option {
	return func(im *Imputer) { im.forbidden = append(im.forbidden, cols...) }
}

// WithOrdinal label-encodes the given categorical columns instead of
// one-hot encoding them.
func WithOrdinal(cols ...string) Option {
	return func(im *Imputer) { im.ordinal = append(im.ordinal, cols...) }
}

// WithOutput persists the completed dataset at the given path (.csv or
// .parquet) after a successful run.
func WithOutput(path string) Option { return func(im *Imputer) { im.output = path } }

// WithEnsembleConfig replaces the default ensemble hyperparameters.
func WithEnsembleConfig(cfg EnsembleConfig) Option {
	return func(im *Imputer) { im.cfg = cfg }
}

// WithOracle replaces the default heuristic type oracle.
func WithOracle(o typing.Oracle) Option { return func(im *Imputer) { im.oracle = o } }

// WithEnsembleFactory replaces the default random-forest factory.
func WithEnsembleFactory(f EnsembleFactory) Option {
	return func(im *Imputer) { im.factory = f }
}

// WithLogf installs a progress logger; nil keeps the run silent.
func WithLogf(f func(format string, args ...any)) Option {
	return func(im *Imputer) { im.logf = f }
}

// New configures an imputer for the named target column.
func New(target string, opts ...Option) (*Imputer, error) {
	im := &Imputer{
		target:     target,
		rounds:     4,
		window:     4,
		resilience: 2,
		cfg:        DefaultEnsembleConfig(),
		oracle:     typing.DefaultOracle(),
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.target == "" {
		return nil, fmt.Errorf("proxfill: target column name is required")
	}
	if im.resilience < 2 {
		return nil, fmt.Errorf("proxfill: resilience must be at least 2, got %d", im.resilience)
	}
	if im.rounds < 1 {
		return nil, fmt.Errorf("proxfill: rounds per block must be at least 1, got %d", im.rounds)
	}
	if im.window < 1 {
		return nil, fmt.Errorf("proxfill: convergence window must be at least 1, got %d", im.window)
	}
	if im.factory == nil {
		im.factory = forestFactory(im.cfg)
	}
	if im.logf == nil {
		im.logf = func(string, ...any) {}
	}
	return im, nil
}

// Run imputes every missing feature cell of data and returns the
// completed dataset with the input's row and column shape. The input
// frame is never modified. Cancellation is honored between rounds only.
func (im *Imputer) Run(ctx context.Context, data *frame.Frame) (*frame.Frame, error) {
	if err := im.setup(data); err != nil {
		return nil, err
	}

	window := newCountWindow(im.resilience)
	for done := false; !done; {
		for r := 0; r < im.rounds; r++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			im.totalRounds++
			im.logf("round %d of block / %d total", r+1, im.totalRounds)
			if err := im.runRound(); err != nil {
				return nil, err
			}
		}
		var err error
		done, err = im.checkConvergence(window)
		if err != nil {
			return nil, err
		}
	}
	im.logf("total rounds: %d", im.totalRounds)

	out := im.reassemble()
	if im.output != "" {
		if err := saveDataset(im.output, out); err != nil {
			return nil, err
		}
		im.logf("completed dataset saved to %s", im.output)
	}
	return out, nil
}

func (im *Imputer) setup(data *frame.Frame) error {
	if err := encode.ValidateLists(data.ColumnNames(), im.forbidden, im.ordinal); err != nil {
		return err
	}

	working := data.Clone()
	targetCol, ok := working.Pop(im.target)
	if !ok {
		return &TargetVariableNameError{Name: im.target}
	}
	im.features = working
	im.targetCol = targetCol

	preds, err := im.oracle.Classify(data)
	if err != nil {
		return fmt.Errorf("proxfill: type classification: %w", err)
	}
	im.targetType = preds[im.target]
	im.featTypes = make(typing.Predictions, len(preds)-1)
	for name, label := range preds {
		if name != im.target {
			im.featTypes[name] = label
		}
	}

	// The missing set is computed once and only shrinks afterwards.
	im.missing = nil
	for _, name := range im.features.ColumnNames() {
		col, _ := im.features.ColumnByName(name)
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				im.missing = append(im.missing, Cell{Row: i, Column: name})
			}
		}
	}
	if len(im.missing) == 0 {
		return &NoMissingValuesError{}
	}
	im.totalMissing = len(im.missing)
	im.logf("located %d missing cells, making initial guesses", im.totalMissing)

	if err := fillInitialGuesses(im.features, im.featTypes, true); err != nil {
		return err
	}

	y, classes, err := encode.Target(im.targetCol, im.targetType, contains(im.forbidden, im.target))
	if err != nil {
		return err
	}
	im.encodedY = y
	im.classes = classes

	// The lists were validated against the full dataset; rounds encode
	// the features only, so the target entry must not reach them.
	im.featForbidden = without(im.forbidden, im.target)
	im.featOrdinal = without(im.ordinal, im.target)

	im.active = make(Histories)
	im.divergent = make(Histories)
	im.convergedH = make(Histories)
	im.verdicts = make(map[Cell]Value)
	return nil
}

// runRound performs one encode / train / proximity / weight / commit
// cycle over the current feature frame.
func (im *Imputer) runRound() error {
	em, err := encode.Features(im.features, im.featTypes, im.featForbidden, im.featOrdinal)
	if err != nil {
		return err
	}
	im.encoded = em

	e := im.factory(im.targetType)
	if err := growEnsemble(e, em.Rows, im.encodedY, im.cfg.TreeIncrement, im.logf); err != nil {
		return fmt.Errorf("proxfill: ensemble fit: %w", err)
	}
	im.ensemble = e

	im.prox = buildProximity(e.TreePredictions(em.Rows), len(em.Rows))
	im.dist = nil

	subs, err := computeWeightedValues(im.features, im.featTypes, im.prox, im.missing, im.decimals)
	if err != nil {
		return err
	}
	for _, s := range subs {
		im.active[s.cell] = append(im.active[s.cell], s.value)
	}
	return commit(im.features, subs)
}

// checkConvergence retires stable cells, then evaluates global
// termination: success when the missing set empties, stagnation when the
// remaining count sat unchanged for a full resilience window.
func (im *Imputer) checkConvergence(window *countWindow) (bool, error) {
	for _, cell := range append([]Cell(nil), im.missing...) {
		history := im.active[cell]
		if len(history) == 0 {
			continue
		}
		numeric := im.featTypes[cell.Column] == typing.Numerical
		if !isConverged(numeric, stability(history, im.window)) {
			continue
		}
		im.verdicts[cell] = history[len(history)-1]
		im.convergedH[cell] = history
		delete(im.active, cell)
		im.removeMissing(cell)
	}

	remaining := len(im.missing)
	im.logf("%d value(s) converged, %d remaining", im.totalMissing-remaining, remaining)

	window.Push(remaining)
	if window.Full() && window.AllEqual() {
		// Stagnation: survivors get fresh median/mode guesses and leave
		// the run; their histories stay available as divergent series.
		for _, cell := range im.missing {
			col, _ := im.features.ColumnByName(cell.Column)
			col.SetNull(cell.Row)
		}
		if err := fillInitialGuesses(im.features, im.featTypes, false); err != nil {
			return false, err
		}
		for cell, history := range im.active {
			im.divergent[cell] = history
			delete(im.active, cell)
		}
		im.missing = nil
		im.logf("%d/%d value(s) unable to converge; median/mode used as replacement", remaining, im.totalMissing)
		return true, nil
	}
	if remaining == 0 {
		im.logf("all values converged")
		return true, nil
	}
	im.logf("not every value converged, onto the next block")
	return false, nil
}

func (im *Imputer) removeMissing(cell Cell) {
	for i, c := range im.missing {
		if c == cell {
			im.missing = append(im.missing[:i], im.missing[i+1:]...)
			return
		}
	}
}

// reassemble rebuilds the completed dataset in the input's column order.
func (im *Imputer) reassemble() *frame.Frame {
	cols := make([]frame.ColumnSchema, 0, im.features.Cols()+1)
	cols = append(cols, im.features.Schema().Columns...)
	out := frame.New(frame.Schema{Columns: append(cols, frame.ColumnSchema{
		Name: im.targetCol.Name(), Type: im.targetCol.Kind(), Nullable: true,
	})})
	for i := 0; i < im.features.Rows(); i++ {
		out.AppendNullRow()
		for _, name := range im.features.ColumnNames() {
			col, _ := im.features.ColumnByName(name)
			_ = out.SetCell(i, name, col.Value(i))
		}
		_ = out.SetCell(i, im.targetCol.Name(), im.targetCol.Value(i))
	}
	return out
}

func saveDataset(path string, f *frame.Frame) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return parquetio.WriteAll(path, f)
	default:
		return csvio.WriteAll(path, f, csvio.WriterOptions{})
	}
}

// FeatureTypes returns the per-feature type labels decided at setup.
func (im *Imputer) FeatureTypes() typing.Predictions { return im.featTypes }

// TargetType returns the target's type label.
func (im *Imputer) TargetType() typing.Label { return im.targetType }

// EncodedFeatures returns the last round's encoded feature matrix.
func (im *Imputer) EncodedFeatures() *encode.Matrix { return im.encoded }

// EncodedTarget returns the encoded target vector; for categorical
// targets TargetClasses maps ids back to modalities.
func (im *Imputer) EncodedTarget() []float64 { return im.encodedY }

// TargetClasses returns the label-encoding classes of a categorical
// target, nil otherwise.
func (im *Imputer) TargetClasses() []string { return im.classes }

// ProximityMatrix returns the proximity matrix of the last completed
// round.
func (im *Imputer) ProximityMatrix() *mat.SymDense { return im.prox }

// DistanceMatrix returns 1 - proximity, computed lazily and cached until
// the next round replaces the proximity matrix.
func (im *Imputer) DistanceMatrix() *mat.SymDense {
	if im.dist == nil && im.prox != nil {
		im.dist = distanceFrom(im.prox)
	}
	return im.dist
}

// ConvergedHistories returns the full substitute series of every cell
// that converged.
func (im *Imputer) ConvergedHistories() Histories { return im.convergedH.clone() }

// DivergentHistories returns the substitute series of cells that never
// converged.
func (im *Imputer) DivergentHistories() Histories { return im.divergent.clone() }

// Verdicts returns the final accepted value per converged cell.
func (im *Imputer) Verdicts() map[Cell]Value {
	out := make(map[Cell]Value, len(im.verdicts))
	for c, v := range im.verdicts {
		out[c] = v
	}
	return out
}

// Model returns the ensemble of the last completed round.
func (im *Imputer) Model() Ensemble { return im.ensemble }

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}
