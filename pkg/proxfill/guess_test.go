package proxfill

import (
	"errors"
	"strings"
	"testing"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

func holedFrame() *frame.Frame {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "height", Type: frame.KindFloat, Nullable: true},
		{Name: "city", Type: frame.KindString, Nullable: true},
	}})
	heights := []any{1.6, 1.8, nil, 2.0}
	cities := []any{"oslo", "oslo", "bergen", nil}
	for i := range heights {
		f.AppendNullRow()
		_ = f.SetCell(i, "height", heights[i])
		_ = f.SetCell(i, "city", cities[i])
	}
	return f
}

func TestInitialGuessesUseMedianAndMode(t *testing.T) {
	f := holedFrame()
	preds := typing.Predictions{"height": typing.Numerical, "city": typing.Categorical}
	if err := fillInitialGuesses(f, preds, true); err != nil {
		t.Fatal(err)
	}
	if f.NullCount() != 0 {
		t.Fatalf("expected a complete frame, %d nulls remain", f.NullCount())
	}
	h, _ := f.ColumnByName("height")
	if v, _ := frame.Float(h, 2); v != 1.8 {
		t.Fatalf("expected median 1.8, got %v", v)
	}
	c, _ := f.ColumnByName("city")
	if m, _ := frame.Modality(c, 3); m != "oslo" {
		t.Fatalf("expected mode oslo, got %q", m)
	}
}

func TestFillRejectsColumnWithoutObservations(t *testing.T) {
	f := frame.New(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "height", Type: frame.KindFloat, Nullable: true},
		{Name: "city", Type: frame.KindString, Nullable: true},
	}})
	for i := 0; i < 4; i++ {
		f.AppendNullRow()
		_ = f.SetCell(i, "city", "oslo")
	}
	preds := typing.Predictions{"height": typing.Numerical, "city": typing.Categorical}
	err := fillInitialGuesses(f, preds, true)
	if err == nil {
		t.Fatal("a column with no observed values must be rejected")
	}
	if !strings.Contains(err.Error(), "height") {
		t.Fatalf("error should name the empty column, got %v", err)
	}
}

func TestFirstFillRejectsCompleteFrame(t *testing.T) {
	f := holedFrame()
	preds := typing.Predictions{"height": typing.Numerical, "city": typing.Categorical}
	if err := fillInitialGuesses(f, preds, true); err != nil {
		t.Fatal(err)
	}
	err := fillInitialGuesses(f, preds, true)
	var noMissing *NoMissingValuesError
	if !errors.As(err, &noMissing) {
		t.Fatalf("expected NoMissingValuesError, got %v", err)
	}
	// A later fill against a complete frame is a no-op, not an error.
	if err := fillInitialGuesses(f, preds, false); err != nil {
		t.Fatal(err)
	}
}
