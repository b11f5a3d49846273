package sim

import (
	"time"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/pkg/logger"
)

// Report summarizes a finished run.
type Report struct {
	RunID    string        `json:"run_id"`
	Ticks    int64         `json:"ticks"`
	Duration time.Duration `json:"duration"`

	StartPrice float64 `json:"start_price"`
	FinalPrice float64 `json:"final_price"`
	PeakPrice  float64 `json:"peak_price"`
	PeakTick   int64   `json:"peak_tick"`

	InitialShortInterest float64 `json:"initial_short_interest"`
	FinalShortInterest   float64 `json:"final_short_interest"`

	HedgePnL          float64 `json:"hedge_pnl"`
	HedgeRemaining    float64 `json:"hedge_remaining"`
	HedgeLossFraction float64 `json:"hedge_loss_fraction"`

	RetailPnL        float64     `json:"retail_pnl"`
	RetailOpenShares market.Size `json:"retail_open_shares"`

	RestrictedTicks int64       `json:"restricted_ticks"`
	DiscardedVolume market.Size `json:"discarded_volume"`
	GateFlips       int64       `json:"gate_flips"`
	HypeIgnitions   int64       `json:"hype_ignitions"`
	TraderErrors    int64       `json:"trader_errors"`

	// Best-effort stream messages no consumer took in time.
	DroppedTickEvents     int64 `json:"dropped_tick_events"`
	DroppedHeadlineEvents int64 `json:"dropped_headline_events"`
}

// Fields returns the report as log fields.
func (r Report) Fields() []logger.Field {
	return []logger.Field{
		logger.String("run_id", r.RunID),
		logger.Int64("ticks", r.Ticks),
		logger.Duration("duration", r.Duration),
		logger.Float64("start_price", r.StartPrice),
		logger.Float64("final_price", r.FinalPrice),
		logger.Float64("peak_price", r.PeakPrice),
		logger.Int64("peak_tick", r.PeakTick),
		logger.Float64("final_short_interest", r.FinalShortInterest),
		logger.Float64("hedge_pnl", r.HedgePnL),
		logger.Float64("hedge_remaining", r.HedgeRemaining),
		logger.Float64("hedge_loss_fraction", r.HedgeLossFraction),
		logger.Float64("retail_pnl", r.RetailPnL),
		logger.Int64("retail_open_shares", int64(r.RetailOpenShares)),
		logger.Int64("restricted_ticks", r.RestrictedTicks),
		logger.Int64("discarded_volume", int64(r.DiscardedVolume)),
		logger.Int64("gate_flips", r.GateFlips),
		logger.Int64("hype_ignitions", r.HypeIgnitions),
		logger.Int64("trader_errors", r.TraderErrors),
		logger.Int64("dropped_tick_events", r.DroppedTickEvents),
		logger.Int64("dropped_headline_events", r.DroppedHeadlineEvents),
	}
}
