package proxfill

import (
	"fmt"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// fillInitialGuesses replaces every missing cell with the column median
// (numerical) or first modal value (categorical) so the ensemble can
// train on a complete matrix.
//
// The first invocation of a run must find something to fill; a dataset
// with nothing to impute is a user error. Later invocations (stagnation
// handling) may run against a complete frame.
func fillInitialGuesses(features *frame.Frame, preds typing.Predictions, firstCall bool) error {
	nullCols := features.NullColumns()
	if firstCall && len(nullCols) == 0 {
		return &NoMissingValuesError{}
	}
	for _, name := range nullCols {
		col, _ := features.ColumnByName(name)
		if preds[name] == typing.Numerical {
			med, ok := frame.Median(col)
			if !ok {
				return fmt.Errorf("proxfill: column %q has no observed values to seed from", name)
			}
			for i := 0; i < col.Len(); i++ {
				if col.IsNull(i) {
					if err := features.SetCell(i, name, med); err != nil {
						return err
					}
				}
			}
			continue
		}
		mode, ok := frame.Mode(col)
		if !ok {
			return fmt.Errorf("proxfill: column %q has no observed values to seed from", name)
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				if err := setModality(features, i, name, mode); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
