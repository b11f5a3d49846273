package view

import (
	"sync"

	"github.com/zappabad/squeeze/internal/media"
)

// HeadlineEvent wraps a published headline.
type HeadlineEvent struct {
	Item media.Headline
}

// HeadlineView maintains a bounded ring buffer of headlines.
type HeadlineView struct {
	mu    sync.RWMutex
	buf   []media.Headline
	size  int
	start int
	count int
}

// NewHeadlineView creates a new HeadlineView with the given capacity.
func NewHeadlineView(capacity int) *HeadlineView {
	if capacity <= 0 {
		capacity = 100
	}
	return &HeadlineView{
		buf:  make([]media.Headline, capacity),
		size: capacity,
	}
}

// Apply adds a headline to the view.
func (v *HeadlineView) Apply(ev HeadlineEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.count < v.size {
		v.buf[(v.start+v.count)%v.size] = ev.Item
		v.count++
		return
	}
	// overwrite oldest
	v.buf[v.start] = ev.Item
	v.start = (v.start + 1) % v.size
}

// Latest returns the last n headlines in chronological order (oldest first).
func (v *HeadlineView) Latest(n int) []media.Headline {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if n <= 0 || v.count == 0 {
		return nil
	}
	if n > v.count {
		n = v.count
	}

	out := make([]media.Headline, n)
	first := (v.start + (v.count - n)) % v.size
	for i := 0; i < n; i++ {
		out[i] = v.buf[(first+i)%v.size]
	}
	return out
}

// Count returns the number of headlines in the view.
func (v *HeadlineView) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.count
}
