package proxfill

import (
	"fmt"
	"strconv"

	"github.com/wdm0006/proxfill/pkg/frame"
)

// Cell identifies one imputable cell by row index and column name. Row
// indices are stable for the lifetime of a run.
type Cell struct {
	Row    int
	Column string
}

func (c Cell) String() string { return fmt.Sprintf("(%d, %s)", c.Row, c.Column) }

// Value is one imputed substitute: either a numeric value or a
// categorical modality.
type Value struct {
	Num     float64
	Mod     string
	Numeric bool
}

func numValue(v float64) Value  { return Value{Num: v, Numeric: true} }
func modValue(mod string) Value { return Value{Mod: mod} }

func (v Value) Equal(o Value) bool {
	if v.Numeric != o.Numeric {
		return false
	}
	if v.Numeric {
		return v.Num == o.Num
	}
	return v.Mod == o.Mod
}

// Histories maps cells to their ordered, append-only substitute series.
type Histories map[Cell][]Value

func (h Histories) clone() Histories {
	out := make(Histories, len(h))
	for c, vals := range h {
		out[c] = append([]Value(nil), vals...)
	}
	return out
}

// applyValue writes a substitute into the features frame, converting the
// modality back to the column's physical type.
func applyValue(f *frame.Frame, cell Cell, v Value) error {
	if v.Numeric {
		return f.SetCell(cell.Row, cell.Column, v.Num)
	}
	return setModality(f, cell.Row, cell.Column, v.Mod)
}

func setModality(f *frame.Frame, row int, name, mod string) error {
	col, ok := f.ColumnByName(name)
	if !ok {
		return fmt.Errorf("proxfill: unknown column %q", name)
	}
	switch col.Kind() {
	case frame.KindString:
		return f.SetCell(row, name, mod)
	case frame.KindBool:
		b, err := strconv.ParseBool(mod)
		if err != nil {
			return fmt.Errorf("proxfill: modality %q is not a bool", mod)
		}
		return f.SetCell(row, name, b)
	case frame.KindInt:
		n, err := strconv.ParseInt(mod, 10, 64)
		if err != nil {
			return fmt.Errorf("proxfill: modality %q is not an int", mod)
		}
		return f.SetCell(row, name, n)
	case frame.KindFloat:
		x, err := strconv.ParseFloat(mod, 64)
		if err != nil {
			return fmt.Errorf("proxfill: modality %q is not a float", mod)
		}
		return f.SetCell(row, name, x)
	}
	return fmt.Errorf("proxfill: column %q has invalid kind", name)
}
