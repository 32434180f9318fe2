package proxfill

import (
	"fmt"

	"github.com/wdm0006/proxfill/pkg/encode"
)

// VariableNameError reports an unknown or duplicated column in the
// forbidden/ordinal lists. It originates in the encode package; the alias
// keeps the whole taxonomy addressable from here.
type VariableNameError = encode.VariableNameError

// TargetVariableNameError reports a target column that does not exist in
// the dataset.
type TargetVariableNameError struct {
	Name string
}

func (e *TargetVariableNameError) Error() string {
	return fmt.Sprintf("proxfill: target variable %q does not exist", e.Name)
}

// NoMissingValuesError reports a dataset with nothing to impute, which is
// a caller error rather than a trivial success.
type NoMissingValuesError struct{}

func (e *NoMissingValuesError) Error() string {
	return "proxfill: no missing values were found in the dataset"
}
