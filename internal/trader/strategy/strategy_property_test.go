package strategy

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"pgregory.net/rapid"
)

func TestHedgePropertyMonotoneCovering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultHedgeConfig()
		cfg.ShortShares = float64(rapid.IntRange(0, 10_000_000).Draw(t, "short"))
		cfg.Entry = rapid.Float64Range(1, 100).Draw(t, "entry")
		s := NewHedgeStrategy(cfg, "hedge")

		prices := rapid.SliceOfN(rapid.Float64Range(0.01, 1000), 1, 50).Draw(t, "prices")
		for i, p := range prices {
			before := s.Remaining()
			pnlBefore := s.RealizedPnL()

			intents, _ := s.Step(context.Background(), int64(i), &fakeMarket{price: p}, nil)
			after := s.Remaining()

			if after > before || after < 0 {
				t.Fatalf("remaining went from %v to %v", before, after)
			}
			if len(intents) == 0 {
				if s.RealizedPnL() != pnlBefore {
					t.Fatalf("pnl changed without a cover")
				}
				continue
			}
			cover := float64(intents[0].Size)
			if cover > before*cfg.MaxCover {
				t.Fatalf("cover %v exceeds %v of %v", cover, cfg.MaxCover, before)
			}
			if cover != before-after {
				t.Fatalf("cover %v does not match remaining change %v", cover, before-after)
			}
		}
	})
}

func TestRetailPropertyOpenSharesMatchIntents(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		s := NewRetailStrategy(DefaultRetailConfig(), "retail_0", rand.New(rand.NewSource(seed)))

		prices := rapid.SliceOfN(rapid.Float64Range(1, 100), 1, 100).Draw(t, "prices")
		m := &fakeMarket{}
		var net int64
		for i, p := range prices {
			m.price = p
			m.history = append(m.history, p)
			intents, _ := s.Step(context.Background(), int64(i), m, fakeHype(i%2 == 0))
			for _, in := range intents {
				if in.Side.IsBuy() {
					net += int64(in.Size)
				} else {
					net -= int64(in.Size)
				}
			}
		}

		if int64(s.OpenShares()) != net {
			t.Fatalf("open shares %d, intents net %d", s.OpenShares(), net)
		}
		if math.IsNaN(s.RealizedPnL()) {
			t.Fatal("pnl is NaN")
		}
	})
}
