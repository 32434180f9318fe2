package proxfill

// countWindow is a fixed-capacity queue of the most recent "remaining
// missing count" observations. When it is full and every entry is equal
// the run has stagnated.
type countWindow struct {
	buf  []int
	next int
	n    int
}

func newCountWindow(capacity int) *countWindow {
	return &countWindow{buf: make([]int, capacity)}
}

func (w *countWindow) Push(v int) {
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

func (w *countWindow) Full() bool { return w.n == len(w.buf) }

func (w *countWindow) AllEqual() bool {
	if w.n == 0 {
		return false
	}
	first := w.buf[0]
	for i := 1; i < w.n; i++ {
		if w.buf[i] != first {
			return false
		}
	}
	return true
}
