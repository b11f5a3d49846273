package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zappabad/squeeze/internal/market/view"
	"github.com/zappabad/squeeze/internal/media"
	mediaview "github.com/zappabad/squeeze/internal/media/view"
	"github.com/zappabad/squeeze/pkg/logger"
)

// PriceReader provides the current market price.
type PriceReader interface {
	Price() float64
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the detector logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// WithOnChange registers a callback invoked on every hype transition.
func WithOnChange(fn func(active bool)) Option {
	return func(d *Detector) { d.onChange = fn }
}

// Detector watches the price and switches hype on after a sharp rise.
// Hype stays on for Duration cycles after the last triggering cycle.
type Detector struct {
	cfg      Config
	pr       PriceReader
	log      *logger.Logger
	onChange func(active bool)

	// mu guards the window and countdown; cycles are serialized.
	mu        sync.Mutex
	window    *view.Window
	countdown int
	cycles    int64

	hype      atomic.Bool
	ignitions atomic.Int64

	tape  *mediaview.HeadlineView
	idGen atomic.Int64

	internalEvents chan mediaview.HeadlineEvent
	externalEvents chan mediaview.HeadlineEvent
	droppedEvents  atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDetector creates a new Detector reading prices from pr.
func NewDetector(cfg Config, pr PriceReader, opts ...Option) *Detector {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.TapeSize <= 0 {
		cfg.TapeSize = def.TapeSize
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.ExternalEventBuffer <= 0 {
		cfg.ExternalEventBuffer = def.ExternalEventBuffer
	}

	d := &Detector{
		cfg:            cfg,
		pr:             pr,
		log:            logger.NewNop(),
		window:         view.NewWindow(cfg.Window),
		tape:           mediaview.NewHeadlineView(cfg.TapeSize),
		internalEvents: make(chan mediaview.HeadlineEvent, cfg.EventBuffer),
		externalEvents: make(chan mediaview.HeadlineEvent, cfg.ExternalEventBuffer),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(1)
	go d.runEventDispatcher()

	return d
}

func (d *Detector) runEventDispatcher() {
	defer d.wg.Done()
	defer close(d.externalEvents)

	for {
		select {
		case <-d.closed:
			return
		case ev := <-d.internalEvents:
			d.tape.Apply(ev)

			if d.cfg.DropExternalEvents {
				select {
				case d.externalEvents <- ev:
				default:
					d.droppedEvents.Add(1)
				}
			} else {
				select {
				case d.externalEvents <- ev:
				case <-d.closed:
					return
				}
			}
		}
	}
}

// Cycle observes the reader's current price. Returns whether hype is active.
func (d *Detector) Cycle() bool {
	return d.Observe(d.pr.Price())
}

// Observe runs one detector cycle on price. Returns whether hype is active.
func (d *Detector) Observe(price float64) bool {
	d.mu.Lock()
	d.cycles++
	d.window.Append(price)

	active := d.hype.Load()
	var rise float64
	if d.window.Len() >= 3 {
		first, _ := d.window.First()
		last, _ := d.window.Last()
		rise = (last - first) / (first + 1e-9)
		if rise > d.cfg.Threshold {
			active = true
			d.countdown = d.cfg.Duration
		}
	}

	if active && d.countdown > 0 {
		d.countdown--
	} else {
		active = false
	}
	cycle := d.cycles
	d.mu.Unlock()

	if prev := d.hype.Swap(active); prev != active {
		d.transition(cycle, active, rise, price)
	}
	return active
}

func (d *Detector) transition(cycle int64, active bool, rise, price float64) {
	item := media.Headline{
		ID:    media.HeadlineID(d.idGen.Add(1)),
		Time:  time.Now().UnixNano(),
		Cycle: cycle,
		Rise:  rise,
	}
	if active {
		d.ignitions.Add(1)
		item.Kind = media.HeadlineIgnited
		item.Text = fmt.Sprintf("Stock rips %.1f%% to $%.2f, retail piles in", rise*100, price)
		d.log.Info("hype ignited",
			logger.Int64("cycle", cycle),
			logger.Float64("rise", rise),
			logger.Float64("price", price),
		)
	} else {
		item.Kind = media.HeadlineFaded
		item.Text = fmt.Sprintf("Frenzy cools at $%.2f", price)
		d.log.Info("hype faded", logger.Int64("cycle", cycle), logger.Float64("price", price))
	}

	if d.onChange != nil {
		d.onChange(active)
	}

	select {
	case d.internalEvents <- mediaview.HeadlineEvent{Item: item}:
	case <-d.closed:
	}
}

// Run cycles the detector every Interval until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.closed:
			return
		case <-ticker.C:
			d.Cycle()
		}
	}
}

// IsHype reports whether hype is currently active.
func (d *Detector) IsHype() bool {
	return d.hype.Load()
}

// Ignitions returns how many times hype switched on.
func (d *Detector) Ignitions() int64 {
	return d.ignitions.Load()
}

// Latest returns the last n headlines (from the tape).
func (d *Detector) Latest(n int) []media.Headline {
	return d.tape.Latest(n)
}

// Status returns the current hype state and countdown.
func (d *Detector) Status() media.HypeStatus {
	d.mu.Lock()
	countdown, cycles := d.countdown, d.cycles
	d.mu.Unlock()

	st := media.HypeStatus{
		Active:    d.hype.Load(),
		Duration:  d.cfg.Duration,
		Cycles:    cycles,
		Ignitions: d.ignitions.Load(),
		Headlines: d.tape.Count(),
	}
	if st.Active {
		st.Countdown = countdown
	}
	return st
}

// Events returns the external headline channel for subscribers.
func (d *Detector) Events() <-chan mediaview.HeadlineEvent {
	return d.externalEvents
}

// DroppedEvents returns the count of dropped external events.
func (d *Detector) DroppedEvents() int64 {
	return d.droppedEvents.Load()
}

// Close shuts down the detector.
func (d *Detector) Close() {
	d.closeOnce.Do(func() {
		close(d.closed)
	})
	d.wg.Wait()
}
