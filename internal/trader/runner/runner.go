package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/trader"
	"github.com/zappabad/squeeze/internal/trader/strategy"
)

// Runner executes a trading strategy on a timer.
type Runner struct {
	cfg      Config
	traderID trader.TraderID
	strategy strategy.Strategy
	mr       strategy.MarketReader
	hr       strategy.HypeReader
	sender   strategy.OrderSender

	events        chan trader.TraderEvent
	droppedEvents atomic.Int64
	steps         atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	runOnce   sync.Once
}

// NewRunner creates a new Runner. Call Run to start it.
func NewRunner(
	cfg Config,
	traderID trader.TraderID,
	strat strategy.Strategy,
	mr strategy.MarketReader,
	hr strategy.HypeReader,
	sender strategy.OrderSender,
) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	return &Runner{
		cfg:      cfg,
		traderID: traderID,
		strategy: strat,
		mr:       mr,
		hr:       hr,
		sender:   sender,
		events:   make(chan trader.TraderEvent, cfg.EventBuffer),
		closed:   make(chan struct{}),
	}
}

// Run steps the strategy every TickInterval until ctx is cancelled or Close
// is called. The events channel is closed when Run returns.
// Run may be called at most once; later calls return immediately.
func (r *Runner) Run(ctx context.Context) {
	started := false
	r.runOnce.Do(func() { started = true })
	if !started {
		return
	}
	defer close(r.events)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.closed:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	now := time.Now().UnixNano()

	intents, events := r.strategy.Step(ctx, now, r.mr, r.hr)
	r.steps.Add(1)

	// reports[k] is the index of the event reporting intents[k].
	reports := make([]int, 0, len(intents))
	for j, ev := range events {
		if ev.Intent != nil {
			reports = append(reports, j)
		}
	}

	// Execute order intents; a refused intent is rolled back and its
	// report withheld, so the ledger only books what the market accepted.
	var refused map[int]bool
	for i, intent := range intents {
		if r.executeIntent(ctx, intent) {
			continue
		}
		if rj, ok := r.strategy.(strategy.Rejecter); ok {
			rj.Rejected(i)
		}
		if i < len(reports) {
			if refused == nil {
				refused = make(map[int]bool)
			}
			refused[reports[i]] = true
		}
	}

	// Emit events
	for j, ev := range events {
		if !refused[j] {
			r.emitEvent(ev)
		}
	}
}

// executeIntent submits intent and reports whether the market accepted it.
func (r *Runner) executeIntent(ctx context.Context, intent trader.OrderIntent) bool {
	err := r.sender.Submit(ctx, market.Order{
		Source: r.traderID.Source(),
		Side:   intent.Side,
		Size:   intent.Size,
	})
	if err == nil {
		return true
	}
	r.emitEvent(trader.TraderEvent{
		TraderID: r.traderID,
		Time:     time.Now().UnixNano(),
		Type:     trader.TraderEventError,
		Intent:   &intent,
		Message:  err.Error(),
	})
	return false
}

// emitEvent ignores ctx so a step's events are delivered whole.
func (r *Runner) emitEvent(ev trader.TraderEvent) {
	if r.cfg.DropEvents {
		select {
		case r.events <- ev:
		default:
			r.droppedEvents.Add(1)
		}
	} else {
		select {
		case r.events <- ev:
		case <-r.closed:
			r.droppedEvents.Add(1)
		}
	}
}

// TraderID returns the trader this runner drives.
func (r *Runner) TraderID() trader.TraderID {
	return r.traderID
}

// Events returns the trader events channel.
func (r *Runner) Events() <-chan trader.TraderEvent {
	return r.events
}

// DroppedEvents returns the count of dropped events.
func (r *Runner) DroppedEvents() int64 {
	return r.droppedEvents.Load()
}

// Steps returns how many times the strategy has been stepped.
func (r *Runner) Steps() int64 {
	return r.steps.Load()
}

// Close stops a running Run loop. It does not wait; Run's caller does.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
}
