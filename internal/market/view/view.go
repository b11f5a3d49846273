package view

import (
	"sync"

	"github.com/zappabad/squeeze/internal/market"
)

// MarketView holds the append-only per-tick series published by the engine.
// The engine is the only writer; readers always receive copies.
type MarketView struct {
	mu            sync.RWMutex
	prices        []float64
	volumes       []market.VolumePair
	shortInterest []float64
}

// NewMarketView creates a new MarketView with room for the expected number of ticks.
func NewMarketView(expectedTicks int) *MarketView {
	if expectedTicks < 0 {
		expectedTicks = 0
	}
	return &MarketView{
		prices:        make([]float64, 0, expectedTicks),
		volumes:       make([]market.VolumePair, 0, expectedTicks),
		shortInterest: make([]float64, 0, expectedTicks),
	}
}

// Record appends one tick's entries to every series.
func (v *MarketView) Record(price float64, vol market.VolumePair, shortOutstanding float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.prices = append(v.prices, price)
	v.volumes = append(v.volumes, vol)
	v.shortInterest = append(v.shortInterest, shortOutstanding)
}

// Len returns the number of recorded ticks.
func (v *MarketView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.prices)
}

// PricesLast returns the last n prices in chronological order.
func (v *MarketView) PricesLast(n int) []float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if n <= 0 || len(v.prices) == 0 {
		return nil
	}
	if n > len(v.prices) {
		n = len(v.prices)
	}
	out := make([]float64, n)
	copy(out, v.prices[len(v.prices)-n:])
	return out
}

// Series copies every history under one read lock, so the slices always
// have the same length.
func (v *MarketView) Series() market.Series {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := market.Series{
		Prices:        make([]float64, len(v.prices)),
		Volumes:       make([]market.VolumePair, len(v.volumes)),
		ShortInterest: make([]float64, len(v.shortInterest)),
	}
	copy(out.Prices, v.prices)
	copy(out.Volumes, v.volumes)
	copy(out.ShortInterest, v.shortInterest)
	return out
}
