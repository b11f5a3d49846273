package strategy

import (
	"context"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/trader"
)

// MarketReader provides read-only access to market data.
type MarketReader interface {
	Price() float64
	PriceHistoryLen() int
	PriceHistoryLast(n int) []float64
}

// HypeReader reports whether media hype is active.
type HypeReader interface {
	IsHype() bool
}

// OrderSender provides the ability to send orders to the market.
type OrderSender interface {
	Submit(ctx context.Context, o market.Order) error
}

// Rand is the randomness a strategy draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Strategy is the interface for trading strategies.
type Strategy interface {
	// Step is called on each tick. Returns order intents and any events to publish.
	// The k-th event with a non-nil Intent reports intents[k].
	Step(ctx context.Context, now int64, mr MarketReader, hr HypeReader) ([]trader.OrderIntent, []trader.TraderEvent)
}

// Rejecter is implemented by strategies that book their own orders. The runner
// calls Rejected with the index of every intent from the latest Step that the
// market refused, before the next Step.
type Rejecter interface {
	Rejected(i int)
}
