package view

import "github.com/zappabad/squeeze/internal/broker"

// ActivityTape is a ring buffer of recent activity (bounded memory).
type ActivityTape struct {
	buf   []broker.Activity
	size  int
	start int
	count int
}

func NewActivityTape(capacity int) *ActivityTape {
	if capacity <= 0 {
		capacity = 1
	}
	return &ActivityTape{
		buf:  make([]broker.Activity, capacity),
		size: capacity,
	}
}

func (t *ActivityTape) Append(a broker.Activity) {
	if t.count < t.size {
		t.buf[(t.start+t.count)%t.size] = a
		t.count++
		return
	}
	// overwrite oldest
	t.buf[t.start] = a
	t.start = (t.start + 1) % t.size
}

// Last returns up to n activities in chronological order.
func (t *ActivityTape) Last(n int) []broker.Activity {
	if n <= 0 || t.count == 0 {
		return nil
	}
	if n > t.count {
		n = t.count
	}
	out := make([]broker.Activity, n)
	first := (t.start + (t.count - n)) % t.size
	for i := 0; i < n; i++ {
		out[i] = t.buf[(first+i)%t.size]
	}
	return out
}

func (t *ActivityTape) Len() int { return t.count }
