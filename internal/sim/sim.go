package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	brokerservice "github.com/zappabad/squeeze/internal/broker/service"
	"github.com/zappabad/squeeze/internal/market"
	marketservice "github.com/zappabad/squeeze/internal/market/service"
	mediaservice "github.com/zappabad/squeeze/internal/media/service"
	"github.com/zappabad/squeeze/internal/platform"
	"github.com/zappabad/squeeze/internal/trader"
	"github.com/zappabad/squeeze/internal/trader/runner"
	"github.com/zappabad/squeeze/internal/trader/strategy"
	"github.com/zappabad/squeeze/pkg/logger"
	"github.com/zappabad/squeeze/pkg/metrics"
)

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrAlreadyRun    = errors.New("simulation already run")
)

// HedgeID is the trader ID of the short-position actor.
const HedgeID trader.TraderID = "hedge"

// RetailID returns the trader ID of retail cluster i.
func RetailID(i int) trader.TraderID {
	return trader.TraderID(fmt.Sprintf("retail_%d", i))
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the simulation logger. Components log through it too.
func WithLogger(l *logger.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Simulation) { s.metrics = m }
}

// Simulation owns all the subsystems of a run and manages their lifecycle.
type Simulation struct {
	Market  *marketservice.MarketService
	Gate    *platform.Gate
	Media   *mediaservice.Detector
	Hedge   *strategy.HedgeStrategy
	Retail  []*strategy.RetailStrategy
	Traders []*runner.Runner
	Broker  *brokerservice.BrokerService

	cfg     Config
	runID   string
	log     *logger.Logger
	metrics *metrics.Recorder

	traderErrors atomic.Int64
	started      atomic.Bool
	closeOnce    sync.Once
}

// New builds a Simulation from cfg. Nothing runs until Run is called.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	p := cfg.Params
	if p.TickDuration <= 0 {
		return nil, fmt.Errorf("%w: tick duration %v must be positive", ErrInvalidConfig, p.TickDuration)
	}
	if p.TotalTicks < 0 {
		return nil, fmt.Errorf("%w: total ticks %d must be non-negative", ErrInvalidConfig, p.TotalTicks)
	}
	if p.PopulationSize < 0 {
		return nil, fmt.Errorf("%w: population size %d must be non-negative", ErrInvalidConfig, p.PopulationSize)
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = DefaultConfig().LogEvery
	}
	if cfg.ActorInterval <= 0 {
		cfg.ActorInterval = p.TickDuration
	}

	s := &Simulation{
		cfg:   cfg,
		runID: uuid.NewString(),
		log:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.String("run_id", s.runID))

	mcfg := marketservice.DefaultConfig()
	mcfg.InitialPrice = p.InitialPrice
	mcfg.Liquidity = p.Liquidity
	mcfg.ImpactK = p.ImpactK
	mcfg.ShortShares = p.ShortShares()
	mcfg.ExpectedTicks = p.TotalTicks
	if cfg.ReturnWindow > 0 {
		mcfg.ReturnWindow = cfg.ReturnWindow
	}
	engine, err := marketservice.NewMarketService(mcfg)
	if err != nil {
		return nil, fmt.Errorf("create market: %w", err)
	}
	s.Market = engine

	s.Gate = platform.NewGate(
		platform.Config{Threshold: p.VolatilityThreshold, Interval: cfg.GateInterval},
		engine, engine,
		platform.WithLogger(s.log.With(logger.String("component", "gate"))),
		platform.WithOnChange(func(allowed bool) {
			if s.metrics != nil {
				s.metrics.RecordGateFlip(allowed)
			}
		}),
	)

	hcfg := mediaservice.DefaultConfig()
	hcfg.Threshold = cfg.HypeThreshold
	if cfg.HypeWindow > 0 {
		hcfg.Window = cfg.HypeWindow
	}
	if cfg.HypeDuration > 0 {
		hcfg.Duration = cfg.HypeDuration
	}
	if cfg.HypeInterval > 0 {
		hcfg.Interval = cfg.HypeInterval
	}
	s.Media = mediaservice.NewDetector(hcfg, engine,
		mediaservice.WithLogger(s.log.With(logger.String("component", "media"))),
		mediaservice.WithOnChange(func(active bool) {
			if s.metrics != nil {
				s.metrics.RecordHype(active, active)
			}
		}),
	)

	s.Broker = brokerservice.NewBrokerService(
		brokerservice.Config{ActivityCapacity: cfg.ActivityCapacity},
		brokerservice.WithEventHook(s.onTraderEvent),
	)

	// Runners block rather than drop so the ledger sees every position change.
	rcfg := runner.Config{TickInterval: cfg.ActorInterval, DropEvents: false}

	hedgeCfg := strategy.DefaultHedgeConfig()
	hedgeCfg.ShortShares = p.ShortShares()
	hedgeCfg.Entry = p.InitialPrice
	hedgeCfg.CoverThreshold = p.HedgeCoverThreshold
	s.Hedge = strategy.NewHedgeStrategy(hedgeCfg, HedgeID)
	s.addRunner(rcfg, HedgeID, s.Hedge)

	retailCfg := strategy.DefaultRetailConfig()
	retailCfg.BaseRate = p.RetailBaseRate
	retailCfg.MediaAmplification = p.MediaAmplification
	retailCfg.FomoThreshold = p.FomoThreshold
	for i := 0; i < p.PopulationSize; i++ {
		id := RetailID(i)
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		strat := strategy.NewRetailStrategy(retailCfg, id, rng)
		s.Retail = append(s.Retail, strat)
		s.addRunner(rcfg, id, strat)
	}

	return s, nil
}

func (s *Simulation) addRunner(cfg runner.Config, id trader.TraderID, strat strategy.Strategy) {
	r := runner.NewRunner(
		cfg,
		id,
		strat,
		s.Market, // MarketReader
		s.Media,  // HypeReader
		s.Market, // OrderSender
	)
	s.Traders = append(s.Traders, r)
	s.Broker.AttachTraderEvents(r.Events())
}

func (s *Simulation) onTraderEvent(ev trader.TraderEvent) {
	if ev.Type != trader.TraderEventError {
		return
	}
	s.traderErrors.Add(1)
	if s.metrics != nil {
		s.metrics.RecordTraderError(string(ev.TraderID))
	}
	s.log.Debug("order rejected", logger.String("trader", string(ev.TraderID)), logger.String("error", ev.Message))
}

// RunID returns the unique ID of this run.
func (s *Simulation) RunID() string {
	return s.runID
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config {
	return s.cfg
}

// Run starts every actor, advances the market once per tick for TotalTicks
// ticks, then stops the actors and returns the run report. An invariant
// violation aborts the run with a *market.InvariantError. Cancelling ctx
// stops the run early and returns ctx.Err() with a partial report.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	if !s.started.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyRun
	}

	p := s.cfg.Params
	start := time.Now()
	rep := Report{
		RunID:                s.runID,
		StartPrice:           s.Market.Price(),
		PeakPrice:            s.Market.Price(),
		InitialShortInterest: s.Market.ShortOutstanding(),
	}

	s.log.Info("simulation starting",
		logger.Int("ticks", p.TotalTicks),
		logger.Int("retail_clusters", p.PopulationSize),
		logger.Float64("price", rep.StartPrice),
		logger.Float64("short_shares", rep.InitialShortInterest),
		logger.Duration("tick_duration", p.TickDuration),
	)

	actx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	spawn := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(actx)
		}()
	}
	spawn(s.Gate.Run)
	spawn(s.Media.Run)
	for _, r := range s.Traders {
		spawn(r.Run)
	}

	runErr := s.drive(ctx, &rep)

	// Runners close their event channels on exit; the ledger then drains.
	cancel()
	wg.Wait()
	s.Broker.Wait()

	if runErr == nil {
		runErr = s.checkPositions(rep.Ticks)
	}

	s.finish(&rep, start)

	var ie *market.InvariantError
	switch {
	case errors.As(runErr, &ie):
		s.log.Error("simulation aborted",
			logger.Int64("tick", ie.Tick),
			logger.String("invariant", ie.Invariant),
			logger.String("detail", ie.Detail),
		)
	case runErr != nil:
		s.log.Warn("simulation stopped", logger.Error(runErr), logger.Int64("ticks", rep.Ticks))
	default:
		s.log.Info("simulation finished", rep.Fields()...)
	}

	return rep, runErr
}

// drive calls AdvanceTick exactly once per tick, never concurrently.
func (s *Simulation) drive(ctx context.Context, rep *Report) error {
	p := s.cfg.Params

	ticker := time.NewTicker(p.TickDuration)
	defer ticker.Stop()

	for i := 0; i < p.TotalTicks; i++ {
		if i%s.cfg.LogEvery == 0 {
			s.log.Info("tick progress",
				logger.Int("tick", i),
				logger.Int("total", p.TotalTicks),
				logger.Float64("price", s.Market.Price()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		t0 := time.Now()
		summary, err := s.Market.AdvanceTick()
		if err != nil {
			return err
		}
		elapsed := time.Since(t0)

		rep.Ticks = summary.Tick
		if summary.Price > rep.PeakPrice {
			rep.PeakPrice = summary.Price
			rep.PeakTick = summary.Tick
		}
		if summary.Restricted {
			rep.RestrictedTicks++
		}
		rep.DiscardedVolume += summary.Discarded

		if err := s.checkTick(summary); err != nil {
			return err
		}

		if s.metrics != nil {
			s.metrics.RecordTick(summary.Price,
				int64(summary.BuyVolume), int64(summary.SellVolume),
				int64(summary.CoverVolume), int64(summary.Discarded),
				elapsed.Seconds(),
			)
			s.metrics.RecordMarketState(s.Market.RealizedVolatility(), s.Market.ShortOutstanding(), s.Market.BuyAllowed())
		}
	}
	return nil
}

// checkTick verifies the per-tick bookkeeping invariants.
func (s *Simulation) checkTick(summary market.TickSummary) error {
	if n := s.Market.PriceHistoryLen(); int64(n) != summary.Tick {
		return &market.InvariantError{
			Tick:      summary.Tick,
			Invariant: "one history entry per tick",
			Detail:    fmt.Sprintf("price history has %d entries", n),
		}
	}
	if n := len(s.Market.Returns()); n > s.Market.ReturnWindowCap() {
		return &market.InvariantError{
			Tick:      summary.Tick,
			Invariant: "return window bounded",
			Detail:    fmt.Sprintf("return window holds %d of %d", n, s.Market.ReturnWindowCap()),
		}
	}
	return nil
}

// checkPositions verifies that every retail cluster's open shares match the
// ledger built from its events.
func (s *Simulation) checkPositions(tick int64) error {
	for i, strat := range s.Retail {
		id := RetailID(i)
		acct, _ := s.Broker.Account(id)
		if open := strat.OpenShares(); open != acct.OpenShares {
			return &market.InvariantError{
				Tick:      tick,
				Invariant: "no position leaks",
				Detail:    fmt.Sprintf("%s holds %d shares, ledger shows %d", id, open, acct.OpenShares),
			}
		}
	}
	return nil
}

func (s *Simulation) finish(rep *Report, start time.Time) {
	rep.Duration = time.Since(start)
	rep.FinalPrice = s.Market.Price()
	rep.FinalShortInterest = s.Market.ShortOutstanding()
	rep.HedgePnL = s.Hedge.RealizedPnL()
	rep.HedgeRemaining = s.Hedge.Remaining()
	rep.HedgeLossFraction = s.Hedge.LossFraction(rep.FinalPrice)
	for _, strat := range s.Retail {
		rep.RetailPnL += strat.RealizedPnL()
		rep.RetailOpenShares += strat.OpenShares()
	}
	rep.GateFlips = s.Gate.Flips()
	rep.HypeIgnitions = s.Media.Ignitions()
	rep.TraderErrors = s.traderErrors.Load()
	rep.DroppedTickEvents = s.Market.DroppedEvents()
	rep.DroppedHeadlineEvents = s.Media.DroppedEvents()
}

// Close shuts down all subsystems in reverse dependency order.
func (s *Simulation) Close() {
	s.closeOnce.Do(func() {
		// Stop traders first
		for _, t := range s.Traders {
			t.Close()
		}
		s.Media.Close()
		s.Market.Close()
		s.Broker.Close()
	})
}
