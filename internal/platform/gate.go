package platform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zappabad/squeeze/pkg/logger"
)

// VolatilityReader provides the engine's realized volatility.
type VolatilityReader interface {
	RealizedVolatility() float64
}

// RestrictionWriter sets the engine's buy restriction flag.
type RestrictionWriter interface {
	SetBuyAllowed(allowed bool)
}

// Config holds configuration for the restriction gate.
type Config struct {
	// Threshold is the realized volatility above which buys are restricted.
	Threshold float64
	// Interval is the time between gate cycles.
	Interval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.10,
		Interval:  5 * time.Millisecond,
	}
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gate) { g.log = l }
}

// WithOnChange registers a callback invoked when the flag flips.
func WithOnChange(fn func(buyAllowed bool)) Option {
	return func(g *Gate) { g.onChange = fn }
}

// Gate restricts buying while realized volatility exceeds the threshold.
// There is no hysteresis: the flag follows the current window on every cycle.
type Gate struct {
	cfg      Config
	vr       VolatilityReader
	rw       RestrictionWriter
	log      *logger.Logger
	onChange func(bool)

	allowed atomic.Bool
	flips   atomic.Int64
}

// NewGate creates a new Gate. Buying starts allowed.
func NewGate(cfg Config, vr VolatilityReader, rw RestrictionWriter, opts ...Option) *Gate {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}

	g := &Gate{
		cfg: cfg,
		vr:  vr,
		rw:  rw,
		log: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.allowed.Store(true)
	return g
}

// Cycle evaluates the volatility once and writes the flag. Returns the new flag.
func (g *Gate) Cycle() bool {
	vol := g.vr.RealizedVolatility()
	allowed := !(vol > g.cfg.Threshold)
	g.rw.SetBuyAllowed(allowed)

	if g.allowed.Swap(allowed) != allowed {
		g.flips.Add(1)
		if allowed {
			g.log.Info("buy restriction lifted", logger.Float64("volatility", vol))
		} else {
			g.log.Warn("buy restriction imposed",
				logger.Float64("volatility", vol),
				logger.Float64("threshold", g.cfg.Threshold),
			)
		}
		if g.onChange != nil {
			g.onChange(allowed)
		}
	}
	return allowed
}

// Run cycles the gate every Interval until ctx is cancelled.
func (g *Gate) Run(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Cycle()
		}
	}
}

// Flips returns the number of flag changes so far.
func (g *Gate) Flips() int64 {
	return g.flips.Load()
}
