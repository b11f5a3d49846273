package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zappabad/squeeze/internal/broker"
	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/media"
	mediaview "github.com/zappabad/squeeze/internal/media/view"
	"github.com/zappabad/squeeze/internal/sim"
	"github.com/zappabad/squeeze/tui/panels"
)

type fakeMarket struct {
	events chan market.TickSummary
}

func (fakeMarket) Snapshot() market.Snapshot {
	return market.Snapshot{Tick: 3, Price: 16.5, BuyAllowed: false, ShortOutstanding: 80, Volatility: 0.2}
}
func (fakeMarket) Series() market.Series {
	return market.Series{
		Prices:        []float64{15, 16, 16.5},
		Volumes:       []market.VolumePair{{Buy: 10}, {Buy: 20, Sell: 5}, {Sell: 3}},
		ShortInterest: []float64{100, 90, 80},
	}
}
func (f fakeMarket) Events() <-chan market.TickSummary { return f.events }

type fakeHype struct {
	events chan mediaview.HeadlineEvent
}

func (fakeHype) Status() media.HypeStatus {
	return media.HypeStatus{Active: true, Countdown: 75, Duration: 150, Cycles: 40, Ignitions: 2}
}
func (fakeHype) Latest(n int) []media.Headline {
	return []media.Headline{
		{ID: 1, Cycle: 3, Kind: media.HeadlineIgnited, Text: "Stock soars", Rise: 0.123},
		{ID: 2, Cycle: 30, Kind: media.HeadlineFaded, Text: "Frenzy cools"},
	}
}
func (f fakeHype) Events() <-chan mediaview.HeadlineEvent { return f.events }

type fakeLedger struct{}

func (fakeLedger) Accounts() []broker.Account {
	return []broker.Account{{TraderID: "hedge", Covered: 20, RealizedPnL: -30}, {TraderID: "retail_0", Bought: 10, OpenShares: 10}}
}
func (fakeLedger) Recent(n int) []broker.Activity {
	return []broker.Activity{{TraderID: "retail_0", Side: market.SideBuy, Size: 10, Price: 15}}
}

func newTestModel() *Model {
	cfg := DefaultConfig()
	cfg.TicksPerCandle = 2
	cfg.VolatilityThreshold = 0.1
	cfg.InitialPrice = 15
	cfg.InitialShort = 100
	return NewModel(cfg,
		fakeMarket{events: make(chan market.TickSummary, 1)},
		fakeHype{events: make(chan mediaview.HeadlineEvent, 1)},
		fakeLedger{},
	)
}

func TestModelFocusCycles(t *testing.T) {
	m := newTestModel()
	if m.Focus() != FocusChart {
		t.Fatalf("expected chart focus, got %d", m.Focus())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.Focus() != FocusVolume {
		t.Errorf("expected volume focus, got %d", m.Focus())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Focus() != FocusLedger {
		t.Errorf("expected wrap to ledger, got %d", m.Focus())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyF4})
	if m.Focus() != FocusHype {
		t.Errorf("expected media focus, got %d", m.Focus())
	}
}

func TestModelRendersSources(t *testing.T) {
	m := newTestModel()
	if got := m.View(); got != "Initializing..." {
		t.Errorf("expected placeholder before sizing, got %q", got)
	}

	m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	m.Update(tickMsg{})
	out := m.View()

	for _, want := range []string{"RESTRICTED", "HYPE", "Stock soars", "+12.3%", "75/150", "2 ignitions", "retail_0", "16.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in view", want)
		}
	}
	if n := len(m.chartPanel.Candles()); n != 2 {
		t.Errorf("expected 2 candles, got %d", n)
	}
}

func TestModelHeadlinesNewestFirst(t *testing.T) {
	m := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	m.Update(tickMsg{})
	m.Update(panels.HeadlineMsg{Item: media.Headline{ID: 3, Cycle: 90, Kind: media.HeadlineIgnited, Text: "Second wave", Rise: 0.07}})

	out := m.View()
	newest := strings.Index(out, "Second wave")
	oldest := strings.Index(out, "Stock soars")
	if newest < 0 || oldest < 0 || newest > oldest {
		t.Errorf("expected newest headline above the oldest, got positions %d and %d", newest, oldest)
	}
}

func TestModelTickSummaryUpdatesStatus(t *testing.T) {
	m := newTestModel()
	m.Update(panels.MarketUpdateMsg{Summary: market.TickSummary{Tick: 4, CoverVolume: 7}})
	if got := m.marketPanel.LastTick(); got.Tick != 4 || got.CoverVolume != 7 {
		t.Errorf("expected last tick 4 with cover 7, got %+v", got)
	}
}

func TestModelDoneStopsRefresh(t *testing.T) {
	m := newTestModel()
	m.Update(DoneMsg{Report: sim.Report{Ticks: 1000, PeakPrice: 42, PeakTick: 512}})
	if !strings.Contains(m.Status(), "1000 ticks") || !strings.Contains(m.Status(), "t512") {
		t.Errorf("unexpected status %q", m.Status())
	}

	_, cmd := m.Update(tickMsg{})
	if cmd != nil {
		if msg := cmd(); msg != nil {
			t.Errorf("expected no further refresh, got %T", msg)
		}
	}

	m.Update(DoneMsg{Err: errors.New("boom")})
	if !strings.Contains(m.Status(), "boom") {
		t.Errorf("expected error in status, got %q", m.Status())
	}
}

func TestModelQuits(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelPauseFreezesPanels(t *testing.T) {
	m := newTestModel()
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !m.Paused() {
		t.Fatal("expected paused")
	}

	m.Update(tickMsg{})
	if n := len(m.chartPanel.Candles()); n != 0 {
		t.Errorf("expected no refresh while paused, got %d candles", n)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m.Update(tickMsg{})
	if n := len(m.chartPanel.Candles()); n != 2 {
		t.Errorf("expected refresh after resume, got %d candles", n)
	}
}
