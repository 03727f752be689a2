package trajectory

// #region window

// window is a fixed-capacity ring of points. Append evicts the oldest
// point once the ring is full; both operations are O(1).
type window struct {
	buf   []Point
	head  int // index of the oldest point
	count int
}

func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{buf: make([]Point, capacity)}
}

// append adds p, returning the evicted point and whether eviction happened.
func (w *window) append(p Point) (Point, bool) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = p
		w.count++
		return Point{}, false
	}
	evicted := w.buf[w.head]
	w.buf[w.head] = p
	w.head = (w.head + 1) % len(w.buf)
	return evicted, true
}

// at returns the i-th point in window order, 0 = oldest.
func (w *window) at(i int) Point {
	return w.buf[(w.head+i)%len(w.buf)]
}

func (w *window) len() int {
	return w.count
}

// points copies the window contents in order, oldest first.
func (w *window) points() []Point {
	out := make([]Point, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.at(i)
	}
	return out
}

// #endregion window
