package strategy

import (
	"context"
	"math"
	"sync"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/trader"
)

// HedgeConfig holds the parameters of the short-position actor.
type HedgeConfig struct {
	// ShortShares is the initial short position.
	ShortShares float64
	// Entry is the price the position was opened at.
	Entry float64
	// CoverThreshold is the loss fraction of collateral above which covering starts.
	CoverThreshold float64
	// BaseCover is added to the loss fraction to size a cover.
	BaseCover float64
	// MaxCover caps the fraction of the remaining position covered per step.
	MaxCover float64
}

// DefaultHedgeConfig returns a HedgeConfig with reasonable defaults.
func DefaultHedgeConfig() HedgeConfig {
	return HedgeConfig{
		ShortShares:    70_000_000 * 1.2,
		Entry:          15.0,
		CoverThreshold: 0.05,
		BaseCover:      0.05,
		MaxCover:       0.20,
	}
}

// HedgeStrategy buys back a short position as its loss grows.
type HedgeStrategy struct {
	cfg      HedgeConfig
	traderID trader.TraderID

	mu        sync.Mutex
	remaining float64
	pnl       float64

	// lastCover and lastPnL book the latest Step's cover for Rejected.
	lastCover float64
	lastPnL   float64
}

// NewHedgeStrategy creates a new HedgeStrategy holding cfg.ShortShares short.
func NewHedgeStrategy(cfg HedgeConfig, traderID trader.TraderID) *HedgeStrategy {
	def := DefaultHedgeConfig()
	if cfg.MaxCover <= 0 {
		cfg.MaxCover = def.MaxCover
	}
	return &HedgeStrategy{cfg: cfg, traderID: traderID, remaining: cfg.ShortShares}
}

// LossFraction returns the unrealized loss as a fraction of collateral at price.
func (s *HedgeStrategy) LossFraction(price float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lossFraction(price)
}

func (s *HedgeStrategy) lossFraction(price float64) float64 {
	loss := (price - s.cfg.Entry) * s.remaining
	collateral := s.cfg.Entry * s.remaining
	return loss / (collateral + 1e-9)
}

// Step implements Strategy.
func (s *HedgeStrategy) Step(ctx context.Context, now int64, mr MarketReader, _ HypeReader) ([]trader.OrderIntent, []trader.TraderEvent) {
	if ctx.Err() != nil {
		return nil, nil
	}

	price := mr.Price()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastCover, s.lastPnL = 0, 0
	lf := s.lossFraction(price)
	if !(lf > s.cfg.CoverThreshold) {
		return nil, nil
	}

	cover := math.Floor(s.remaining * math.Min(s.cfg.BaseCover+lf, s.cfg.MaxCover))
	if cover <= 0 {
		return nil, nil
	}

	realized := -(price - s.cfg.Entry) * cover
	s.pnl += realized
	s.remaining -= cover
	s.lastCover, s.lastPnL = cover, realized

	intent := trader.OrderIntent{Side: market.SideCover, Size: market.Size(cover)}
	ev := trader.TraderEvent{
		TraderID: s.traderID,
		Time:     now,
		Type:     trader.TraderEventCovered,
		Intent:   &intent,
		Price:    price,
		PnL:      realized,
	}
	return []trader.OrderIntent{intent}, []trader.TraderEvent{ev}
}

// Rejected implements Rejecter. A refused cover goes back on the short position.
func (s *HedgeStrategy) Rejected(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i != 0 || s.lastCover == 0 {
		return
	}
	s.remaining += s.lastCover
	s.pnl -= s.lastPnL
	s.lastCover, s.lastPnL = 0, 0
}

// Remaining returns the short shares still outstanding.
func (s *HedgeStrategy) Remaining() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// RealizedPnL returns the P&L realized by covering.
func (s *HedgeStrategy) RealizedPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pnl
}
