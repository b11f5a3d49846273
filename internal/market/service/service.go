package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/zappabad/squeeze/internal/market"
	marketview "github.com/zappabad/squeeze/internal/market/view"
)

var (
	ErrClosed        = errors.New("market service closed")
	ErrNegativeSize  = errors.New("order size must be non-negative")
	ErrInvalidConfig = errors.New("invalid market config")
)

// MarketService is the clearinghouse. It owns the price, the histories and the
// short interest; AdvanceTick is the only mutator of that state.
type MarketService struct {
	cfg   Config
	queue *OrderQueue
	mview *marketview.MarketView

	// advanceMu serializes AdvanceTick and Close.
	advanceMu sync.Mutex

	mu               sync.RWMutex
	price            float64
	shortOutstanding float64
	tick             int64
	returns          *marketview.Window

	buyAllowed atomic.Bool

	events        chan market.TickSummary
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
}

// NewMarketService creates a new MarketService.
func NewMarketService(cfg Config) (*MarketService, error) {
	if !(cfg.InitialPrice > 0) || math.IsInf(cfg.InitialPrice, 0) {
		return nil, fmt.Errorf("%w: initial price %v must be positive", ErrInvalidConfig, cfg.InitialPrice)
	}
	if !(cfg.Liquidity > 0) || math.IsInf(cfg.Liquidity, 0) {
		return nil, fmt.Errorf("%w: liquidity %v must be positive", ErrInvalidConfig, cfg.Liquidity)
	}
	if cfg.ShortShares < 0 {
		return nil, fmt.Errorf("%w: short shares %v must be non-negative", ErrInvalidConfig, cfg.ShortShares)
	}
	if cfg.ReturnWindow <= 0 {
		cfg.ReturnWindow = DefaultConfig().ReturnWindow
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	s := &MarketService{
		cfg:              cfg,
		queue:            NewOrderQueue(),
		mview:            marketview.NewMarketView(cfg.ExpectedTicks),
		price:            cfg.InitialPrice,
		shortOutstanding: cfg.ShortShares,
		returns:          marketview.NewWindow(cfg.ReturnWindow),
		events:           make(chan market.TickSummary, cfg.EventBuffer),
		closed:           make(chan struct{}),
	}
	s.buyAllowed.Store(true)

	return s, nil
}

// Submit queues an order for the next tick.
func (s *MarketService) Submit(ctx context.Context, o market.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	if o.Size < 0 {
		return ErrNegativeSize
	}
	s.queue.Push(o)
	return nil
}

// AdvanceTick drains the pending orders, applies the impact model and records
// the tick. Buys drained while buying is restricted are discarded.
func (s *MarketService) AdvanceTick() (market.TickSummary, error) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	select {
	case <-s.closed:
		return market.TickSummary{}, ErrClosed
	default:
	}

	orders := s.queue.Drain()
	allowBuys := s.buyAllowed.Load()

	var (
		vol       market.VolumePair
		covered   market.Size
		discarded market.Size
	)
	for _, o := range orders {
		switch o.Side {
		case market.SideBuy:
			if !allowBuys {
				discarded += o.Size
				continue
			}
			vol.Buy += o.Size
		case market.SideCover:
			vol.Buy += o.Size
			covered += o.Size
		case market.SideSell:
			vol.Sell += o.Size
		}
	}

	s.mu.Lock()
	net := vol.Net()
	old := s.price
	next := old * math.Exp(s.cfg.ImpactK*float64(net)/s.cfg.Liquidity)
	if !(next > 0) || math.IsInf(next, 0) {
		tick := s.tick + 1
		s.mu.Unlock()
		return market.TickSummary{}, &market.InvariantError{
			Tick:      tick,
			Invariant: "price strictly positive",
			Detail:    fmt.Sprintf("price %v -> %v with net volume %d", old, next, net),
		}
	}

	ret := 0.0
	if old > 0 {
		ret = math.Log(next / old)
	}
	s.returns.Append(ret)
	s.price = next
	s.shortOutstanding = math.Max(0, s.shortOutstanding-float64(covered))
	s.tick++
	s.mview.Record(next, vol, s.shortOutstanding)

	summary := market.TickSummary{
		Tick:        s.tick,
		Price:       next,
		NetVolume:   net,
		BuyVolume:   vol.Buy,
		SellVolume:  vol.Sell,
		CoverVolume: covered,
		Discarded:   discarded,
		Restricted:  !allowBuys,
	}
	s.mu.Unlock()

	s.emitEvent(summary)
	return summary, nil
}

func (s *MarketService) emitEvent(ev market.TickSummary) {
	if s.cfg.DropEvents {
		select {
		case s.events <- ev:
		default:
			s.droppedEvents.Add(1)
		}
		return
	}
	select {
	case s.events <- ev:
	case <-s.closed:
	}
}

// RealizedVolatility returns the root-mean-square of the return window.
// It is not mean-adjusted. Fewer than two samples yield 0.
func (s *MarketService) RealizedVolatility() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.realizedVolatility()
}

// realizedVolatility requires s.mu.
func (s *MarketService) realizedVolatility() float64 {
	n := s.returns.Len()
	if n < 2 {
		return 0
	}
	return math.Sqrt(s.returns.SumSquares() / float64(n))
}

// SetBuyAllowed sets the buy restriction flag applied at the next drain.
func (s *MarketService) SetBuyAllowed(allowed bool) {
	s.buyAllowed.Store(allowed)
}

// BuyAllowed reports whether buys are currently accepted.
func (s *MarketService) BuyAllowed() bool {
	return s.buyAllowed.Load()
}

// Price returns the current price.
func (s *MarketService) Price() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price
}

// Tick returns the number of completed ticks.
func (s *MarketService) Tick() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// ShortOutstanding returns the remaining short shares.
func (s *MarketService) ShortOutstanding() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shortOutstanding
}

// Returns returns the return window in chronological order.
func (s *MarketService) Returns() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returns.Values()
}

// ReturnWindowCap returns the fixed capacity of the return window.
func (s *MarketService) ReturnWindowCap() int {
	return s.returns.Cap()
}

// PriceHistoryLast returns the last n recorded prices.
func (s *MarketService) PriceHistoryLast(n int) []float64 {
	return s.mview.PricesLast(n)
}

// PriceHistoryLen returns the number of recorded prices.
func (s *MarketService) PriceHistoryLen() int {
	return s.mview.Len()
}

// Series returns a consistent copy of all three histories.
func (s *MarketService) Series() market.Series {
	return s.mview.Series()
}

// PendingOrders returns the number of orders waiting for the next tick.
func (s *MarketService) PendingOrders() int {
	return s.queue.Len()
}

// Snapshot returns the current scalar state.
func (s *MarketService) Snapshot() market.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return market.Snapshot{
		Tick:             s.tick,
		Price:            s.price,
		BuyAllowed:       s.buyAllowed.Load(),
		ShortOutstanding: s.shortOutstanding,
		Volatility:       s.realizedVolatility(),
		PendingOrders:    s.PendingOrders(),
	}
}

// Events returns the tick summary events channel.
func (s *MarketService) Events() <-chan market.TickSummary {
	return s.events
}

// DroppedEvents returns the count of dropped tick summary events.
func (s *MarketService) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// Close shuts down the market service. Pending orders are abandoned.
func (s *MarketService) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)

		// Wait out an in-flight tick before closing its channel.
		s.advanceMu.Lock()
		close(s.events)
		s.advanceMu.Unlock()
	})
}
