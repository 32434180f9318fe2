package frame

import "testing"

func makeFrame() *Frame {
	s := Schema{Columns: []ColumnSchema{
		{Name: "age", Type: KindFloat, Nullable: true},
		{Name: "city", Type: KindString, Nullable: true},
	}}
	f := New(s)
	for i := 0; i < 4; i++ {
		f.AppendNullRow()
	}
	_ = f.SetCell(0, "age", 30.0)
	_ = f.SetCell(1, "age", 40.0)
	_ = f.SetCell(3, "age", 50.0)
	_ = f.SetCell(0, "city", "oslo")
	_ = f.SetCell(1, "city", "oslo")
	_ = f.SetCell(2, "city", "bergen")
	return f
}

func TestNullAccounting(t *testing.T) {
	f := makeFrame()
	if got := f.NullCount(); got != 2 {
		t.Fatalf("NullCount = %d, want 2", got)
	}
	cols := f.NullColumns()
	if len(cols) != 2 || cols[0] != "age" || cols[1] != "city" {
		t.Fatalf("NullColumns = %v", cols)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := makeFrame()
	g := f.Clone()
	_ = g.SetCell(2, "age", 99.0)
	col, _ := f.ColumnByName("age")
	if !col.IsNull(2) {
		t.Fatal("mutating clone leaked into original")
	}
}

func TestPopColumn(t *testing.T) {
	f := makeFrame()
	col, ok := f.Pop("age")
	if !ok || col.Name() != "age" {
		t.Fatalf("Pop returned %v, %v", col, ok)
	}
	if f.Cols() != 1 {
		t.Fatalf("Cols = %d after pop, want 1", f.Cols())
	}
	if _, ok := f.ColumnByName("age"); ok {
		t.Fatal("popped column still addressable")
	}
	if _, ok := f.ColumnByName("city"); !ok {
		t.Fatal("remaining column lost its index entry")
	}
}

func TestMedianAndMode(t *testing.T) {
	f := makeFrame()
	age, _ := f.ColumnByName("age")
	med, ok := Median(age)
	if !ok || med != 40.0 {
		t.Fatalf("Median = %v, %v; want 40", med, ok)
	}
	city, _ := f.ColumnByName("city")
	mode, ok := Mode(city)
	if !ok || mode != "oslo" {
		t.Fatalf("Mode = %q, %v; want oslo", mode, ok)
	}
}

func TestModeTieBreaksFirstSeen(t *testing.T) {
	c := NewStringColumn("x", 0)
	for _, v := range []string{"b", "a", "a", "b"} {
		c.Append(v)
	}
	mode, _ := Mode(c)
	if mode != "b" {
		t.Fatalf("Mode = %q, want first-seen b", mode)
	}
}
