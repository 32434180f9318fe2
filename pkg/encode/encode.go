// Package encode converts categorical columns into the numeric
// representation the ensemble consumes. Numerical columns pass through
// untouched, ordinal categoricals are integer-label encoded, remaining
// categoricals are one-hot encoded, and forbidden columns are passed
// through as raw values.
package encode

import (
	"fmt"
	"strconv"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// VariableNameError reports a forbidden or ordinal list referencing a
// column that is not in the dataset, or a column listed in both.
type VariableNameError struct {
	msg string
}

func (e *VariableNameError) Error() string { return e.msg }

// ValidateLists checks the forbidden and ordinal column lists against the
// dataset's column names.
func ValidateLists(columns, forbidden, ordinal []string) error {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	for _, c := range forbidden {
		if _, ok := known[c]; !ok {
			return &VariableNameError{msg: fmt.Sprintf("encode: forbidden column %q not present in the dataset", c)}
		}
	}
	inForbidden := make(map[string]struct{}, len(forbidden))
	for _, c := range forbidden {
		inForbidden[c] = struct{}{}
	}
	for _, c := range ordinal {
		if _, ok := known[c]; !ok {
			return &VariableNameError{msg: fmt.Sprintf("encode: ordinal column %q not present in the dataset", c)}
		}
		if _, dup := inForbidden[c]; dup {
			return &VariableNameError{msg: fmt.Sprintf("encode: column %q listed in both forbidden and ordinal lists", c)}
		}
	}
	return nil
}

// Matrix is a numeric-only view of a frame: one row per sample, derived
// column names in derivation order. Row count always equals the source
// frame's row count; column count may vary between derivations as
// category sets change.
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// Features encodes the feature frame according to the type predictions
// and the forbidden/ordinal policy. The source frame is not modified.
func Features(f *frame.Frame, preds typing.Predictions, forbidden, ordinal []string) (*Matrix, error) {
	names := f.ColumnNames()
	if err := ValidateLists(names, forbidden, ordinal); err != nil {
		return nil, err
	}
	forbiddenSet := toSet(forbidden)
	ordinalSet := toSet(ordinal)

	n := f.Rows()
	m := &Matrix{Rows: make([][]float64, n)}
	for i := range m.Rows {
		m.Rows[i] = make([]float64, 0, f.Cols())
	}

	for _, name := range names {
		col, _ := f.ColumnByName(name)
		_, isForbidden := forbiddenSet[name]
		_, isOrdinal := ordinalSet[name]
		switch {
		case preds[name] == typing.Numerical:
			for i := 0; i < n; i++ {
				v, _ := frame.Float(col, i)
				m.Rows[i] = append(m.Rows[i], v)
			}
			m.Columns = append(m.Columns, name)
		case isOrdinal:
			labels := labelEncodeColumn(col)
			for i := 0; i < n; i++ {
				m.Rows[i] = append(m.Rows[i], labels[i])
			}
			m.Columns = append(m.Columns, name)
		case isForbidden:
			// Raw pass-through. Non-numeric raw values are a caller
			// contract violation.
			for i := 0; i < n; i++ {
				v, err := rawNumeric(col, i)
				if err != nil {
					return nil, err
				}
				m.Rows[i] = append(m.Rows[i], v)
			}
			m.Columns = append(m.Columns, name)
		default:
			mods := observedModalities(col)
			for i := 0; i < n; i++ {
				cell, ok := frame.Modality(col, i)
				for _, mod := range mods {
					if ok && cell == mod {
						m.Rows[i] = append(m.Rows[i], 1)
					} else {
						m.Rows[i] = append(m.Rows[i], 0)
					}
				}
			}
			for _, mod := range mods {
				m.Columns = append(m.Columns, name+"_"+mod)
			}
		}
	}
	return m, nil
}

// Target encodes the target column independently of the features: label
// encoding when it is categorical and not forbidden, raw values
// otherwise. For categorical targets the returned classes map encoded
// ids back to modalities.
func Target(col frame.Column, label typing.Label, forbidden bool) ([]float64, []string, error) {
	n := col.Len()
	if label == typing.Categorical && !forbidden {
		ids := labelEncodeColumn(col)
		return ids, modalityOrder(col), nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := rawNumeric(col, i)
		if err != nil {
			return nil, nil, fmt.Errorf("encode: target column %s: %w", col.Name(), err)
		}
		out[i] = v
	}
	return out, nil, nil
}

// labelEncodeColumn assigns one integer per distinct modality in
// first-seen row order, which keeps ids deterministic within a run.
func labelEncodeColumn(col frame.Column) []float64 {
	ids := make(map[string]float64)
	out := make([]float64, col.Len())
	for i := 0; i < col.Len(); i++ {
		m, ok := frame.Modality(col, i)
		if !ok {
			continue
		}
		id, seen := ids[m]
		if !seen {
			id = float64(len(ids))
			ids[m] = id
		}
		out[i] = id
	}
	return out
}

func observedModalities(col frame.Column) []string {
	return modalityOrder(col)
}

func modalityOrder(col frame.Column) []string {
	seen := make(map[string]struct{})
	var order []string
	for i := 0; i < col.Len(); i++ {
		m, ok := frame.Modality(col, i)
		if !ok {
			continue
		}
		if _, dup := seen[m]; !dup {
			seen[m] = struct{}{}
			order = append(order, m)
		}
	}
	return order
}

func rawNumeric(col frame.Column, i int) (float64, error) {
	if v, ok := frame.Float(col, i); ok {
		return v, nil
	}
	switch c := col.(type) {
	case *frame.BoolColumn:
		if v, ok := c.Get(i); ok {
			if v {
				return 1, nil
			}
			return 0, nil
		}
	case *frame.StringColumn:
		if s, ok := c.Get(i); ok {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("encode: column %s holds non-numeric raw value %q", col.Name(), s)
			}
			return v, nil
		}
	}
	// Null cells encode as zero; after the initial guess fill none remain.
	return 0, nil
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}
