package proxfill

import "testing"

func TestCountWindowFillsBeforeJudging(t *testing.T) {
	w := newCountWindow(3)
	w.Push(5)
	w.Push(5)
	if w.Full() {
		t.Fatal("window should not be full after 2 of 3 pushes")
	}
	w.Push(5)
	if !w.Full() || !w.AllEqual() {
		t.Fatal("three equal pushes should read as stagnation")
	}
}

func TestCountWindowDetectsProgress(t *testing.T) {
	w := newCountWindow(2)
	w.Push(5)
	w.Push(3)
	if !w.Full() {
		t.Fatal("window should be full")
	}
	if w.AllEqual() {
		t.Fatal("5 then 3 is progress, not stagnation")
	}
	w.Push(3)
	if !w.AllEqual() {
		t.Fatal("3 then 3 should read as stagnation")
	}
}
