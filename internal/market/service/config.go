package service

// Config holds configuration for the market service.
type Config struct {
	// InitialPrice is the opening price. Must be strictly positive.
	InitialPrice float64
	// Liquidity scales net volume in the impact model. Must be strictly positive.
	Liquidity float64
	// ImpactK is the impact constant of the log-price update.
	ImpactK float64
	// ShortShares is the initial short interest in shares.
	ShortShares float64
	// ReturnWindow is the capacity of the realized-volatility return window.
	ReturnWindow int
	// ExpectedTicks pre-sizes the history series.
	ExpectedTicks int
	// EventBuffer is the size of the tick summary events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		InitialPrice:  15.0,
		Liquidity:     100_000,
		ImpactK:       0.01,
		ShortShares:   70_000_000 * 1.2,
		ReturnWindow:  50,
		ExpectedTicks: 1000,
		EventBuffer:   1024,
		DropEvents:    true,
	}
}
