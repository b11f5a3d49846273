package broker

import (
	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/trader"
)

// Account is the ledger entry for one trader.
type Account struct {
	TraderID    trader.TraderID `json:"trader_id"`
	Orders      int64           `json:"orders"`
	Errors      int64           `json:"errors"`
	Bought      market.Size     `json:"bought"`
	Sold        market.Size     `json:"sold"`
	Covered     market.Size     `json:"covered"`
	OpenShares  market.Size     `json:"open_shares"`
	RealizedPnL float64         `json:"realized_pnl"`
}

// Activity is one entry of the recent-activity tape.
type Activity struct {
	TraderID trader.TraderID        `json:"trader_id"`
	Time     int64                  `json:"time"`
	Type     trader.TraderEventType `json:"type"`
	Side     market.Side            `json:"side"`
	Size     market.Size            `json:"size"`
	Price    float64                `json:"price"`
	PnL      float64                `json:"pnl"`
	Message  string                 `json:"message,omitempty"`
}
