package sim

import "time"

// Params are the named model parameters of a run. They are immutable once
// the simulation is built.
type Params struct {
	// InitialPrice is the opening price in USD.
	InitialPrice float64
	// FloatShares is the number of shares available to trade.
	FloatShares float64
	// ShortInterestRatio is the short position as a multiple of the float.
	ShortInterestRatio float64
	// Liquidity scales the price impact of net volume; larger moves less.
	Liquidity float64
	// ImpactK is the constant of the log-price impact model.
	ImpactK float64
	// TickDuration is the wall-clock time of one market tick.
	TickDuration time.Duration
	// TotalTicks is the run length.
	TotalTicks int
	// RetailBaseRate is the baseline expected buys per 100 retail steps.
	RetailBaseRate float64
	// MediaAmplification multiplies the retail rate while hype is active.
	MediaAmplification float64
	// HedgeCoverThreshold is the loss fraction of collateral that starts covering.
	HedgeCoverThreshold float64
	// VolatilityThreshold is the realized volatility above which buys are restricted.
	VolatilityThreshold float64
	// FomoThreshold is the price rise over the FOMO lookback that doubles retail demand.
	FomoThreshold float64
	// PopulationSize is the number of retail clusters.
	PopulationSize int
}

// ShortShares returns the initial short position.
func (p Params) ShortShares() float64 {
	return p.FloatShares * p.ShortInterestRatio
}

// Config holds configuration for a simulation run.
type Config struct {
	Params Params

	// Seed seeds retail cluster i with Seed+i.
	Seed int64
	// ReturnWindow is the capacity of the engine's return window.
	ReturnWindow int

	// HypeWindow is the number of prices the hype detector compares across.
	HypeWindow int
	// HypeDuration is the number of detector cycles hype lasts.
	HypeDuration int
	// HypeThreshold is the price rise across the hype window that ignites hype.
	HypeThreshold float64

	// ActorInterval is the cadence of the hedge and retail actors.
	// Zero means one step per tick.
	ActorInterval time.Duration
	// GateInterval is the cadence of the restriction gate.
	GateInterval time.Duration
	// HypeInterval is the cadence of the hype detector.
	HypeInterval time.Duration

	// LogEvery logs progress every LogEvery ticks.
	LogEvery int
	// ActivityCapacity bounds the ledger's recent-activity tape.
	ActivityCapacity int
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		InitialPrice:        15.0,
		FloatShares:         70_000_000,
		ShortInterestRatio:  1.2,
		Liquidity:           100_000,
		ImpactK:             0.01,
		TickDuration:        10 * time.Millisecond,
		TotalTicks:          1000,
		RetailBaseRate:      80,
		MediaAmplification:  4,
		HedgeCoverThreshold: 0.05,
		VolatilityThreshold: 0.10,
		FomoThreshold:       0.05,
		PopulationSize:      10,
	}
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Params:           DefaultParams(),
		Seed:             1,
		ReturnWindow:     50,
		HypeWindow:       30,
		HypeDuration:     150,
		HypeThreshold:    0.05,
		GateInterval:     2 * time.Millisecond,
		HypeInterval:     2 * time.Millisecond,
		LogEvery:         100,
		ActivityCapacity: 200,
	}
}
