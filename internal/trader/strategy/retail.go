package strategy

import (
	"context"
	"sync"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/trader"
)

// RetailConfig holds the parameters of a retail cluster.
type RetailConfig struct {
	// BaseRate is the expected buys per 100 steps without amplification.
	BaseRate float64
	// MediaAmplification multiplies the rate while hype is active.
	MediaAmplification float64
	// FomoThreshold is the fractional rise over FomoLookback prices that triggers FOMO.
	FomoThreshold float64
	// FomoMultiplier multiplies the rate while FOMO is on.
	FomoMultiplier float64
	// FomoLookback is the number of recent prices compared against.
	FomoLookback int
	MinOrderSize market.Size
	MaxOrderSize market.Size
	// TakeProfit and StopLoss are multiples of the entry price.
	TakeProfit float64
	StopLoss   float64
}

// DefaultRetailConfig returns a RetailConfig with reasonable defaults.
func DefaultRetailConfig() RetailConfig {
	return RetailConfig{
		BaseRate:           80,
		MediaAmplification: 4,
		FomoThreshold:      0.05,
		FomoMultiplier:     2,
		FomoLookback:       20,
		MinOrderSize:       1,
		MaxOrderSize:       10,
		TakeProfit:         1.5,
		StopLoss:           0.8,
	}
}

// Position is a block of shares bought at one price.
type Position struct {
	Entry float64
	Size  market.Size

	id uint64
}

// retailUndo reverses the booking of one intent from the latest Step.
type retailUndo struct {
	pos    Position
	opened bool
	pnl    float64
}

// RetailStrategy models a cluster of retail buyers with take-profit and stop-loss exits.
type RetailStrategy struct {
	cfg      RetailConfig
	traderID trader.TraderID
	rng      Rand

	mu        sync.Mutex
	positions []Position
	pnl       float64
	nextID    uint64
	undo      []retailUndo
}

// NewRetailStrategy creates a new RetailStrategy drawing from rng.
func NewRetailStrategy(cfg RetailConfig, traderID trader.TraderID, rng Rand) *RetailStrategy {
	def := DefaultRetailConfig()
	if cfg.FomoLookback <= 0 {
		cfg.FomoLookback = def.FomoLookback
	}
	if cfg.MinOrderSize <= 0 {
		cfg.MinOrderSize = def.MinOrderSize
	}
	if cfg.MaxOrderSize < cfg.MinOrderSize {
		cfg.MaxOrderSize = cfg.MinOrderSize
	}
	if cfg.TakeProfit <= 0 {
		cfg.TakeProfit = def.TakeProfit
	}
	if cfg.StopLoss <= 0 {
		cfg.StopLoss = def.StopLoss
	}
	return &RetailStrategy{cfg: cfg, traderID: traderID, rng: rng}
}

// arrivalProbability returns the chance of a buy at price, clamped to [0, 1].
func (s *RetailStrategy) arrivalProbability(price float64, mr MarketReader, hr HypeReader) float64 {
	rate := s.cfg.BaseRate
	if hr != nil && hr.IsHype() {
		rate *= s.cfg.MediaAmplification
	}
	if mr.PriceHistoryLen() > s.cfg.FomoLookback {
		recent := mr.PriceHistoryLast(s.cfg.FomoLookback)
		if len(recent) > 0 && price > recent[0]*(1+s.cfg.FomoThreshold) {
			rate *= s.cfg.FomoMultiplier
		}
	}

	p := rate / 100
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Step implements Strategy.
func (s *RetailStrategy) Step(ctx context.Context, now int64, mr MarketReader, hr HypeReader) ([]trader.OrderIntent, []trader.TraderEvent) {
	if ctx.Err() != nil {
		return nil, nil
	}

	var intents []trader.OrderIntent
	var events []trader.TraderEvent

	price := mr.Price()
	p := s.arrivalProbability(price, mr, hr)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = s.undo[:0]
	held := len(s.positions)

	if s.rng.Float64() < p {
		span := int(s.cfg.MaxOrderSize - s.cfg.MinOrderSize + 1)
		size := s.cfg.MinOrderSize + market.Size(s.rng.Intn(span))
		intent := trader.OrderIntent{Side: market.SideBuy, Size: size}
		intents = append(intents, intent)

		s.nextID++
		pos := Position{Entry: price, Size: size, id: s.nextID}
		s.positions = append(s.positions, pos)
		s.undo = append(s.undo, retailUndo{pos: pos, opened: true})

		events = append(events, trader.TraderEvent{
			TraderID: s.traderID,
			Time:     now,
			Type:     trader.TraderEventPlacedOrder,
			Intent:   &intent,
			Price:    price,
		})
	}

	// Exit on take-profit first, then stop-loss. A position opened this step
	// is first checked on the next one.
	kept := s.positions[:0]
	for i, pos := range s.positions {
		if i >= held {
			kept = append(kept, pos)
			continue
		}
		var msg string
		switch {
		case price >= pos.Entry*s.cfg.TakeProfit:
			msg = "take-profit"
		case price <= pos.Entry*s.cfg.StopLoss:
			msg = "stop-loss"
		default:
			kept = append(kept, pos)
			continue
		}

		realized := (price - pos.Entry) * float64(pos.Size)
		s.pnl += realized
		s.undo = append(s.undo, retailUndo{pos: pos, pnl: realized})

		intent := trader.OrderIntent{Side: market.SideSell, Size: pos.Size}
		intents = append(intents, intent)
		events = append(events, trader.TraderEvent{
			TraderID: s.traderID,
			Time:     now,
			Type:     trader.TraderEventClosedPosition,
			Intent:   &intent,
			Price:    price,
			PnL:      realized,
			Message:  msg,
		})
	}
	s.positions = kept

	return intents, events
}

// Rejected implements Rejecter. A refused buy drops its position; a refused
// sell reopens the position and takes back its P&L.
func (s *RetailStrategy) Rejected(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.undo) {
		return
	}
	u := s.undo[i]
	if !u.opened {
		s.positions = append(s.positions, u.pos)
		s.pnl -= u.pnl
		return
	}
	for j, pos := range s.positions {
		if pos.id == u.pos.id {
			s.positions = append(s.positions[:j], s.positions[j+1:]...)
			return
		}
	}
}

// openPositions returns a copy of the open positions.
func (s *RetailStrategy) openPositions() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Position, len(s.positions))
	copy(out, s.positions)
	return out
}

// OpenShares returns the total size of open positions.
func (s *RetailStrategy) OpenShares() market.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total market.Size
	for _, pos := range s.positions {
		total += pos.Size
	}
	return total
}

// RealizedPnL returns the P&L realized by closed positions.
func (s *RetailStrategy) RealizedPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pnl
}
