package view

// Window is a fixed-capacity ring of samples (bounded memory).
// Appending to a full window evicts the oldest sample.
// Window is not safe for concurrent use; its owner serializes access.
type Window struct {
	buf   []float64
	size  int
	start int
	count int
}

// NewWindow creates a new Window with the given capacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		buf:  make([]float64, capacity),
		size: capacity,
	}
}

// Append adds a sample to the window.
func (w *Window) Append(v float64) {
	if w.count < w.size {
		w.buf[(w.start+w.count)%w.size] = v
		w.count++
		return
	}
	// overwrite oldest
	w.buf[w.start] = v
	w.start = (w.start + 1) % w.size
}

// Len returns the number of samples held.
func (w *Window) Len() int { return w.count }

// Cap returns the fixed capacity.
func (w *Window) Cap() int { return w.size }

// First returns the oldest sample.
func (w *Window) First() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	return w.buf[w.start], true
}

// Last returns the newest sample.
func (w *Window) Last() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	return w.buf[(w.start+w.count-1)%w.size], true
}

// Values returns the samples in chronological order.
// Returns a copy (not internal references).
func (w *Window) Values() []float64 {
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.start+i)%w.size]
	}
	return out
}

// SumSquares returns the sum of squared samples.
func (w *Window) SumSquares() float64 {
	var sum float64
	for i := 0; i < w.count; i++ {
		v := w.buf[(w.start+i)%w.size]
		sum += v * v
	}
	return sum
}
