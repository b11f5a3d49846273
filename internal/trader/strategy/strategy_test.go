package strategy

import (
	"context"
	"math"
	"testing"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/internal/trader"
)

type fakeMarket struct {
	price   float64
	history []float64
}

func (m *fakeMarket) Price() float64       { return m.price }
func (m *fakeMarket) PriceHistoryLen() int { return len(m.history) }
func (m *fakeMarket) PriceHistoryLast(n int) []float64 {
	if n > len(m.history) {
		n = len(m.history)
	}
	return append([]float64(nil), m.history[len(m.history)-n:]...)
}

type fakeHype bool

func (h fakeHype) IsHype() bool { return bool(h) }

// fakeRand replays fixed draws.
type fakeRand struct {
	floats []float64
	ints   []int
}

func (r *fakeRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.999
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *fakeRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	if i >= n {
		return n - 1
	}
	return i
}

func flat(n int, p float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestRetailArrivalProbability(t *testing.T) {
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", &fakeRand{})

	m := &fakeMarket{price: 10, history: flat(5, 10)}
	if p := s.arrivalProbability(m.price, m, fakeHype(false)); math.Abs(p-0.8) > 1e-12 {
		t.Errorf("expected base probability 0.8, got %v", p)
	}

	// 80 * 4 = 320 -> clamped
	if p := s.arrivalProbability(m.price, m, fakeHype(true)); p != 1 {
		t.Errorf("expected hype probability clamped to 1, got %v", p)
	}

	cfg := DefaultRetailConfig()
	cfg.BaseRate = 10
	s = NewRetailStrategy(cfg, "retail_0", &fakeRand{})

	// Exactly 20 prices is not enough history for FOMO.
	m = &fakeMarket{price: 20, history: flat(20, 10)}
	if p := s.arrivalProbability(m.price, m, fakeHype(false)); math.Abs(p-0.1) > 1e-12 {
		t.Errorf("expected no FOMO with 20 prices, got %v", p)
	}

	m.history = append(flat(1, 1), flat(20, 10)...)
	if p := s.arrivalProbability(m.price, m, fakeHype(false)); math.Abs(p-0.2) > 1e-12 {
		t.Errorf("expected FOMO to double the rate, got %v", p)
	}
	if p := s.arrivalProbability(m.price, m, fakeHype(true)); math.Abs(p-0.8) > 1e-12 {
		t.Errorf("expected hype and FOMO to stack, got %v", p)
	}

	// 10 * 1.05 = 10.5 is not strictly exceeded.
	m.price = 10.5
	if p := s.arrivalProbability(m.price, m, fakeHype(false)); math.Abs(p-0.1) > 1e-12 {
		t.Errorf("expected no FOMO at exactly the threshold, got %v", p)
	}
}

func TestRetailBuyOpensPosition(t *testing.T) {
	rng := &fakeRand{floats: []float64{0.1}, ints: []int{6}}
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_3", rng)
	m := &fakeMarket{price: 12, history: flat(3, 12)}

	intents, events := s.Step(context.Background(), 1, m, fakeHype(false))
	if len(intents) != 1 || intents[0].Side != market.SideBuy || intents[0].Size != 7 {
		t.Fatalf("expected buy of 7, got %+v", intents)
	}
	if len(events) != 1 || events[0].Type != trader.TraderEventPlacedOrder || events[0].TraderID != "retail_3" {
		t.Fatalf("expected placed-order event, got %+v", events)
	}
	pos := s.openPositions()
	if len(pos) != 1 || pos[0].Entry != 12 || pos[0].Size != 7 {
		t.Errorf("expected position {12 7}, got %+v", pos)
	}
	if s.OpenShares() != 7 {
		t.Errorf("expected 7 open shares, got %d", s.OpenShares())
	}

	// A draw above p places nothing.
	intents, _ = s.Step(context.Background(), 2, m, fakeHype(false))
	if len(intents) != 0 {
		t.Errorf("expected no intents, got %+v", intents)
	}
}

func TestRetailSizeRange(t *testing.T) {
	rng := &fakeRand{floats: []float64{0, 0}, ints: []int{0, 9}}
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", rng)
	m := &fakeMarket{price: 10}

	a, _ := s.Step(context.Background(), 1, m, nil)
	b, _ := s.Step(context.Background(), 2, m, nil)
	if a[0].Size != 1 || b[0].Size != 10 {
		t.Errorf("expected sizes 1 and 10, got %d and %d", a[0].Size, b[0].Size)
	}
}

func TestRetailTakeProfitAndStopLoss(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		pnl   float64
		msg   string
	}{
		{"take-profit", 15, 25, "take-profit"},
		{"stop-loss", 8, -10, "stop-loss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &fakeRand{floats: []float64{0}, ints: []int{4}}
			s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", rng)
			m := &fakeMarket{price: 10}
			s.Step(context.Background(), 1, m, nil)

			m.price = tt.price
			intents, events := s.Step(context.Background(), 2, m, nil)
			if len(intents) != 1 || intents[0].Side != market.SideSell || intents[0].Size != 5 {
				t.Fatalf("expected full sell of 5, got %+v", intents)
			}
			if len(events) != 1 || events[0].Type != trader.TraderEventClosedPosition || events[0].Message != tt.msg {
				t.Fatalf("expected %s event, got %+v", tt.msg, events)
			}
			if s.RealizedPnL() != tt.pnl {
				t.Errorf("expected pnl %v, got %v", tt.pnl, s.RealizedPnL())
			}
			if events[0].PnL != tt.pnl {
				t.Errorf("expected event pnl %v, got %v", tt.pnl, events[0].PnL)
			}
			if s.OpenShares() != 0 {
				t.Errorf("expected no open shares, got %d", s.OpenShares())
			}
		})
	}
}

func TestRetailHoldsInsideBand(t *testing.T) {
	rng := &fakeRand{floats: []float64{0}, ints: []int{0}}
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", rng)
	m := &fakeMarket{price: 10}
	s.Step(context.Background(), 1, m, nil)

	for _, p := range []float64{8.01, 14.99, 10} {
		m.price = p
		if intents, _ := s.Step(context.Background(), 2, m, nil); len(intents) != 0 {
			t.Errorf("expected hold at %v, got %+v", p, intents)
		}
	}
	if s.OpenShares() != 1 {
		t.Errorf("expected 1 open share, got %d", s.OpenShares())
	}
}

func TestRetailCancelledContext(t *testing.T) {
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", &fakeRand{floats: []float64{0}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if intents, events := s.Step(ctx, 1, &fakeMarket{price: 10}, nil); intents != nil || events != nil {
		t.Error("expected no output on a cancelled context")
	}
	if s.OpenShares() != 0 {
		t.Error("expected no state change on a cancelled context")
	}
}

func TestHedgeCoversAboveThreshold(t *testing.T) {
	cfg := DefaultHedgeConfig()
	cfg.ShortShares = 1001
	cfg.Entry = 10
	s := NewHedgeStrategy(cfg, "hedge")

	// 4% loss: below threshold
	intents, _ := s.Step(context.Background(), 1, &fakeMarket{price: 10.4}, nil)
	if len(intents) != 0 {
		t.Fatalf("expected no cover below threshold, got %+v", intents)
	}

	// lf 0.1 -> cover floor(1001 * 0.15) = 150
	intents, events := s.Step(context.Background(), 2, &fakeMarket{price: 11}, nil)
	if len(intents) != 1 || intents[0].Side != market.SideCover || intents[0].Size != 150 {
		t.Fatalf("expected cover of 150, got %+v", intents)
	}
	if len(events) != 1 || events[0].Type != trader.TraderEventCovered {
		t.Fatalf("expected covered event, got %+v", events)
	}
	if s.Remaining() != 851 {
		t.Errorf("expected 851 remaining, got %v", s.Remaining())
	}
	if math.Abs(s.RealizedPnL()-(-150)) > 1e-9 {
		t.Errorf("expected pnl -150, got %v", s.RealizedPnL())
	}

	// lf 1.0 -> capped at 20%: floor(851 * 0.2) = 170
	intents, _ = s.Step(context.Background(), 3, &fakeMarket{price: 20}, nil)
	if len(intents) != 1 || intents[0].Size != 170 {
		t.Fatalf("expected capped cover of 170, got %+v", intents)
	}
	if s.Remaining() != 681 {
		t.Errorf("expected 681 remaining, got %v", s.Remaining())
	}
}

func TestHedgeNothingLeftToCover(t *testing.T) {
	cfg := DefaultHedgeConfig()
	cfg.ShortShares = 4
	cfg.Entry = 10
	s := NewHedgeStrategy(cfg, "hedge")

	// floor(4 * 0.2) = 0
	if intents, events := s.Step(context.Background(), 1, &fakeMarket{price: 100}, nil); intents != nil || events != nil {
		t.Errorf("expected nothing when cover rounds to zero, got %+v", intents)
	}
	if s.Remaining() != 4 {
		t.Errorf("expected 4 remaining, got %v", s.Remaining())
	}
}

func TestRetailRejectedBuyDropsPosition(t *testing.T) {
	rng := &fakeRand{floats: []float64{0, 0}, ints: []int{2, 4}}
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", rng)
	m := &fakeMarket{price: 10}

	s.Step(context.Background(), 1, m, nil)
	intents, _ := s.Step(context.Background(), 2, m, nil)
	if len(intents) != 1 || intents[0].Size != 5 {
		t.Fatalf("expected buy of 5, got %+v", intents)
	}

	s.Rejected(0)
	pos := s.openPositions()
	if len(pos) != 1 || pos[0].Size != 3 {
		t.Errorf("expected only the accepted position of 3, got %+v", pos)
	}

	// Out of range indexes are ignored.
	s.Rejected(1)
	s.Rejected(-1)
	if s.OpenShares() != 3 {
		t.Errorf("expected 3 open shares, got %d", s.OpenShares())
	}
}

func TestRetailRejectedSellReopensPosition(t *testing.T) {
	rng := &fakeRand{floats: []float64{0, 0.999}, ints: []int{4}}
	s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", rng)
	m := &fakeMarket{price: 10}
	s.Step(context.Background(), 1, m, nil)

	m.price = 15
	intents, _ := s.Step(context.Background(), 2, m, nil)
	if len(intents) != 1 || intents[0].Side != market.SideSell {
		t.Fatalf("expected take-profit sell, got %+v", intents)
	}

	s.Rejected(0)
	if s.OpenShares() != 5 {
		t.Errorf("expected the position back, got %d open shares", s.OpenShares())
	}
	if s.RealizedPnL() != 0 {
		t.Errorf("expected pnl rolled back to 0, got %v", s.RealizedPnL())
	}

	// The reopened position exits again on the next step.
	intents, _ = s.Step(context.Background(), 3, m, nil)
	if len(intents) != 1 || intents[0].Size != 5 {
		t.Fatalf("expected sell of 5 on retry, got %+v", intents)
	}
	if s.RealizedPnL() != 25 {
		t.Errorf("expected pnl 25, got %v", s.RealizedPnL())
	}
}

func TestRetailNewPositionWaitsOneStep(t *testing.T) {
	cfg := DefaultRetailConfig()
	cfg.TakeProfit = 1
	rng := &fakeRand{floats: []float64{0}, ints: []int{0}}
	s := NewRetailStrategy(cfg, "retail_0", rng)
	m := &fakeMarket{price: 10}

	intents, _ := s.Step(context.Background(), 1, m, nil)
	if len(intents) != 1 || intents[0].Side != market.SideBuy {
		t.Fatalf("expected only the buy, got %+v", intents)
	}
	intents, _ = s.Step(context.Background(), 2, m, nil)
	if len(intents) != 1 || intents[0].Side != market.SideSell {
		t.Fatalf("expected the sell on the next step, got %+v", intents)
	}
}

func TestHedgeRejectedCoverRestoresShort(t *testing.T) {
	cfg := DefaultHedgeConfig()
	cfg.ShortShares = 1001
	cfg.Entry = 10
	s := NewHedgeStrategy(cfg, "hedge")

	intents, _ := s.Step(context.Background(), 1, &fakeMarket{price: 11}, nil)
	if len(intents) != 1 || intents[0].Size != 150 {
		t.Fatalf("expected cover of 150, got %+v", intents)
	}

	s.Rejected(0)
	if s.Remaining() != 1001 {
		t.Errorf("expected 1001 remaining, got %v", s.Remaining())
	}
	if s.RealizedPnL() != 0 {
		t.Errorf("expected pnl 0, got %v", s.RealizedPnL())
	}

	// A second call for the same step is a no-op.
	s.Rejected(0)
	if s.Remaining() != 1001 {
		t.Errorf("expected 1001 remaining after repeat, got %v", s.Remaining())
	}
}
