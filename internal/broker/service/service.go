package service

import (
	"sync"
	"sync/atomic"

	"github.com/zappabad/squeeze/internal/broker"
	brokerview "github.com/zappabad/squeeze/internal/broker/view"
	"github.com/zappabad/squeeze/internal/trader"
)

// Option configures a BrokerService.
type Option func(*BrokerService)

// WithEventHook registers fn to be called for every booked event.
func WithEventHook(fn func(trader.TraderEvent)) Option {
	return func(s *BrokerService) { s.hook = fn }
}

// BrokerService books trader events into a ledger.
type BrokerService struct {
	cfg  Config
	view *brokerview.Ledger
	hook func(trader.TraderEvent)

	handled atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewBrokerService creates a new BrokerService.
func NewBrokerService(cfg Config, opts ...Option) *BrokerService {
	if cfg.ActivityCapacity <= 0 {
		cfg.ActivityCapacity = DefaultConfig().ActivityCapacity
	}

	s := &BrokerService{
		cfg:    cfg,
		view:   brokerview.NewLedger(cfg.ActivityCapacity),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachTraderEvents starts listening to trader events in a goroutine.
// The listener runs until the channel is closed or the service is closed.
func (s *BrokerService) AttachTraderEvents(events <-chan trader.TraderEvent) {
	s.wg.Add(1)
	go s.runTraderEventListener(events)
}

func (s *BrokerService) runTraderEventListener(events <-chan trader.TraderEvent) {
	defer s.wg.Done()

	for {
		select {
		case <-s.closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.view.Apply(ev)
			s.handled.Add(1)
			if s.hook != nil {
				s.hook(ev)
			}
		}
	}
}

// Account returns one trader's account.
func (s *BrokerService) Account(id trader.TraderID) (broker.Account, bool) {
	return s.view.Account(id)
}

// Accounts returns all accounts ordered by trader ID.
func (s *BrokerService) Accounts() []broker.Account {
	return s.view.Accounts()
}

// Recent returns the last n activities.
func (s *BrokerService) Recent(n int) []broker.Activity {
	return s.view.Recent(n)
}

// Handled returns the number of events booked so far.
func (s *BrokerService) Handled() int64 {
	return s.handled.Load()
}

// Wait blocks until every attached channel has been drained and closed.
func (s *BrokerService) Wait() {
	s.wg.Wait()
}

// Close stops all listeners without draining and waits for them to exit.
func (s *BrokerService) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
