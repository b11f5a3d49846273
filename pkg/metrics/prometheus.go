package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records simulation metrics into its own Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	volume        *prometheus.CounterVec
	discarded     prometheus.Counter
	price         prometheus.Gauge
	volatility    prometheus.Gauge
	shortInterest prometheus.Gauge
	buyAllowed    prometheus.Gauge
	hype          prometheus.Gauge
	gateFlips     prometheus.Counter
	hypeIgnitions prometheus.Counter
	traderErrors  *prometheus.CounterVec
	tickDuration  prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "squeeze_ticks_total",
			Help: "Total number of completed market ticks",
		}),
		volume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squeeze_volume_shares_total",
				Help: "Shares cleared by the engine",
			},
			[]string{"side"},
		),
		discarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "squeeze_discarded_buy_shares_total",
			Help: "Buy shares dropped while buying was restricted",
		}),
		price: factory.NewGauge(prometheus.GaugeOpts{
			Name: "squeeze_price",
			Help: "Last cleared price",
		}),
		volatility: factory.NewGauge(prometheus.GaugeOpts{
			Name: "squeeze_realized_volatility",
			Help: "RMS of the recent log-return window",
		}),
		shortInterest: factory.NewGauge(prometheus.GaugeOpts{
			Name: "squeeze_short_interest_shares",
			Help: "Short shares outstanding",
		}),
		buyAllowed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "squeeze_buy_allowed",
			Help: "1 when buys are accepted, 0 when restricted",
		}),
		hype: factory.NewGauge(prometheus.GaugeOpts{
			Name: "squeeze_hype_active",
			Help: "1 while media hype is active",
		}),
		gateFlips: factory.NewCounter(prometheus.CounterOpts{
			Name: "squeeze_gate_flips_total",
			Help: "Number of buy restriction state changes",
		}),
		hypeIgnitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "squeeze_hype_ignitions_total",
			Help: "Number of times hype became active",
		}),
		traderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squeeze_trader_errors_total",
				Help: "Order submission failures by trader",
			},
			[]string{"trader"},
		),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "squeeze_tick_duration_seconds",
			Help:    "Time spent inside AdvanceTick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}
}

// Registry returns the registry backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordTick records one cleared tick. Cover shares are part of buy.
func (r *Recorder) RecordTick(price float64, buy, sell, cover, discarded int64, seconds float64) {
	r.ticks.Inc()
	r.price.Set(price)
	r.volume.WithLabelValues("buy").Add(float64(buy))
	r.volume.WithLabelValues("sell").Add(float64(sell))
	r.volume.WithLabelValues("cover").Add(float64(cover))
	r.discarded.Add(float64(discarded))
	r.tickDuration.Observe(seconds)
}

// RecordMarketState records engine gauges sampled after a tick.
func (r *Recorder) RecordMarketState(volatility, shortInterest float64, buyAllowed bool) {
	r.volatility.Set(volatility)
	r.shortInterest.Set(shortInterest)
	r.buyAllowed.Set(boolGauge(buyAllowed))
}

// RecordGateFlip records a change of the buy restriction.
func (r *Recorder) RecordGateFlip(buyAllowed bool) {
	r.gateFlips.Inc()
	r.buyAllowed.Set(boolGauge(buyAllowed))
}

// RecordHype records the hype flag; ignited counts a transition to active.
func (r *Recorder) RecordHype(active, ignited bool) {
	if ignited {
		r.hypeIgnitions.Inc()
	}
	r.hype.Set(boolGauge(active))
}

// RecordTraderError records a failed order submission.
func (r *Recorder) RecordTraderError(trader string) {
	r.traderErrors.WithLabelValues(trader).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
