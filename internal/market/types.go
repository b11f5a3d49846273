package market

import (
	"fmt"
	"strconv"
)

// Side represents the order side.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
	// SideCover is a buy that also retires short shares.
	SideCover
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	case SideCover:
		return "COVER"
	default:
		return "UNKNOWN"
	}
}

// IsBuy reports whether the side adds to buy volume.
func (s Side) IsBuy() bool { return s == SideBuy || s == SideCover }

// Size represents order quantity in shares.
type Size int64

func (s Size) String() string { return strconv.FormatInt(int64(s), 10) }

// SourceID identifies the actor that placed an order.
type SourceID string

// Order is an immutable value object. The engine consumes each order exactly once.
type Order struct {
	Source SourceID
	Side   Side
	Size   Size
}

// VolumePair is the aggregate buy and sell volume of one tick.
// Buy includes covers.
type VolumePair struct {
	Buy  Size `json:"buy"`
	Sell Size `json:"sell"`
}

// Net returns buy minus sell volume.
func (v VolumePair) Net() Size { return v.Buy - v.Sell }

// TickSummary is returned by each tick advance.
type TickSummary struct {
	Tick       int64   `json:"tick"`
	Price      float64 `json:"price"`
	NetVolume  Size    `json:"net_volume"`
	BuyVolume  Size    `json:"buy_volume"`
	SellVolume Size    `json:"sell_volume"`
	// CoverVolume is the part of BuyVolume that closed short positions.
	CoverVolume Size `json:"cover_volume"`
	// Discarded is buy volume dropped while buys were restricted.
	Discarded Size `json:"discarded"`
	// Restricted reports whether buys were restricted for this drain.
	Restricted bool `json:"restricted"`
}

// Snapshot is a point-in-time copy of the engine's scalar state.
type Snapshot struct {
	Tick             int64   `json:"tick"`
	Price            float64 `json:"price"`
	BuyAllowed       bool    `json:"buy_allowed"`
	ShortOutstanding float64 `json:"short_outstanding"`
	Volatility       float64 `json:"volatility"`
	PendingOrders    int     `json:"pending_orders"`
}

// Series is the per-tick history of one run. All three slices have one entry
// per completed tick.
type Series struct {
	Prices        []float64    `json:"prices"`
	Volumes       []VolumePair `json:"volumes"`
	ShortInterest []float64    `json:"short_interest"`
}

// InvariantError reports a broken model invariant. It is fatal for the run.
type InvariantError struct {
	Tick      int64
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %q violated at tick %d: %s", e.Invariant, e.Tick, e.Detail)
}
