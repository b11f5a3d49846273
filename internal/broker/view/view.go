package view

import (
	"sort"
	"sync"

	"github.com/zappabad/squeeze/internal/broker"
	"github.com/zappabad/squeeze/internal/trader"
)

// Ledger maintains per-trader accounts and a bounded tape of recent activity.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[trader.TraderID]*broker.Account
	recent   *ActivityTape
}

// NewLedger creates a new Ledger keeping up to capacity recent activities.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = 100
	}
	return &Ledger{
		accounts: make(map[trader.TraderID]*broker.Account),
		recent:   NewActivityTape(capacity),
	}
}

// Apply books a trader event.
func (v *Ledger) Apply(ev trader.TraderEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	acct, ok := v.accounts[ev.TraderID]
	if !ok {
		acct = &broker.Account{TraderID: ev.TraderID}
		v.accounts[ev.TraderID] = acct
	}

	act := broker.Activity{
		TraderID: ev.TraderID,
		Time:     ev.Time,
		Type:     ev.Type,
		Price:    ev.Price,
		PnL:      ev.PnL,
		Message:  ev.Message,
	}
	if ev.Intent != nil {
		act.Side = ev.Intent.Side
		act.Size = ev.Intent.Size
	}

	switch ev.Type {
	case trader.TraderEventPlacedOrder:
		acct.Orders++
		acct.Bought += act.Size
		acct.OpenShares += act.Size
	case trader.TraderEventClosedPosition:
		acct.Orders++
		acct.Sold += act.Size
		acct.OpenShares -= act.Size
		acct.RealizedPnL += ev.PnL
	case trader.TraderEventCovered:
		acct.Orders++
		acct.Covered += act.Size
		acct.RealizedPnL += ev.PnL
	case trader.TraderEventError:
		acct.Errors++
	}

	v.recent.Append(act)
}

// Account returns a copy of one trader's account.
func (v *Ledger) Account(id trader.TraderID) (broker.Account, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	acct, ok := v.accounts[id]
	if !ok {
		return broker.Account{TraderID: id}, false
	}
	return *acct, true
}

// Accounts returns a copy of all accounts ordered by trader ID.
func (v *Ledger) Accounts() []broker.Account {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]broker.Account, 0, len(v.accounts))
	for _, acct := range v.accounts {
		out = append(out, *acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TraderID < out[j].TraderID })
	return out
}

// Recent returns the last n activities, oldest first.
func (v *Ledger) Recent(n int) []broker.Activity {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.recent.Last(n)
}
