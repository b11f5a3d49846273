package service

import (
	"sync"

	"github.com/zappabad/squeeze/internal/market"
)

// OrderQueue is an unbounded multi-producer, single-consumer order queue.
// Drain swaps the pending slice out under the lock, so every Push either lands
// in the returned batch or in the next one.
type OrderQueue struct {
	mu      sync.Mutex
	pending []market.Order
}

// NewOrderQueue creates an empty OrderQueue.
func NewOrderQueue() *OrderQueue {
	return &OrderQueue{}
}

// Push appends an order.
func (q *OrderQueue) Push(o market.Order) {
	q.mu.Lock()
	q.pending = append(q.pending, o)
	q.mu.Unlock()
}

// Drain removes and returns every pending order.
func (q *OrderQueue) Drain() []market.Order {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	return batch
}

// Len returns the number of pending orders.
func (q *OrderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
