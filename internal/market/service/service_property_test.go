package service

import (
	"context"
	"errors"
	"testing"

	"github.com/zappabad/squeeze/internal/market"
	"pgregory.net/rapid"
)

// Price stays strictly positive across arbitrary order flow.
func TestProperty_PriceStaysPositive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.InitialPrice = rapid.Float64Range(0.01, 1000).Draw(t, "initialPrice")
		svc, err := NewMarketService(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer svc.Close()

		ticks := rapid.IntRange(1, 50).Draw(t, "ticks")
		for i := 0; i < ticks; i++ {
			svc.SetBuyAllowed(rapid.Bool().Draw(t, "buyAllowed"))
			orders := rapid.IntRange(0, 8).Draw(t, "orders")
			for j := 0; j < orders; j++ {
				o := market.Order{
					Source: "prop",
					Side:   market.Side(rapid.IntRange(0, 2).Draw(t, "side")),
					Size:   market.Size(rapid.Int64Range(0, 2_000_000).Draw(t, "size")),
				}
				if err := svc.Submit(context.Background(), o); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			before := svc.Price()
			summary, err := svc.AdvanceTick()
			if err != nil {
				var inv *market.InvariantError
				if errors.As(err, &inv) {
					t.Fatalf("price went non-positive from %v: %v", before, err)
				}
				t.Fatalf("unexpected error: %v", err)
			}
			if !(summary.Price > 0) {
				t.Fatalf("tick %d: price %v not positive", summary.Tick, summary.Price)
			}
			if summary.NetVolume == 0 && summary.Price != before {
				t.Fatalf("tick %d: flat tick moved price %v -> %v", summary.Tick, before, summary.Price)
			}
		}

		if got := len(svc.Series().Prices); got != ticks {
			t.Fatalf("expected %d history entries, got %d", ticks, got)
		}
		if got := len(svc.Returns()); got > cfg.ReturnWindow {
			t.Fatalf("return window length %d exceeds capacity %d", got, cfg.ReturnWindow)
		}
	})
}

// Drained buys never reach the price while restricted.
func TestProperty_RestrictedBuysOnlyCountSellsAndCovers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc, err := NewMarketService(DefaultConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer svc.Close()
		svc.SetBuyAllowed(false)

		var wantBuy, wantSell, wantDiscarded market.Size
		n := rapid.IntRange(0, 20).Draw(t, "n")
		for i := 0; i < n; i++ {
			side := market.Side(rapid.IntRange(0, 2).Draw(t, "side"))
			size := market.Size(rapid.Int64Range(0, 10_000).Draw(t, "size"))
			switch side {
			case market.SideBuy:
				wantDiscarded += size
			case market.SideCover:
				wantBuy += size
			case market.SideSell:
				wantSell += size
			}
			if err := svc.Submit(context.Background(), market.Order{Side: side, Size: size}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		summary, err := svc.AdvanceTick()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.BuyVolume != wantBuy || summary.SellVolume != wantSell || summary.Discarded != wantDiscarded {
			t.Fatalf("expected buy=%d sell=%d discarded=%d, got %+v", wantBuy, wantSell, wantDiscarded, summary)
		}
	})
}

// Every accepted order is counted in exactly one tick.
func TestProperty_SubmittedVolumeConserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.InitialPrice = 10
		svc, err := NewMarketService(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer svc.Close()

		var submitted, counted market.VolumePair
		steps := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 200).Draw(t, "steps")
		for i, step := range steps {
			if step == 0 {
				summary, err := svc.AdvanceTick()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				counted.Buy += summary.BuyVolume
				counted.Sell += summary.SellVolume
				continue
			}
			size := market.Size(rapid.IntRange(0, 50).Draw(t, "size"))
			side := market.SideBuy
			if step == 2 {
				side = market.SideSell
			}
			if err := svc.Submit(context.Background(), market.Order{Source: "r", Side: side, Size: size}); err != nil {
				t.Fatalf("step %d: unexpected error: %v", i, err)
			}
			if side == market.SideBuy {
				submitted.Buy += size
			} else {
				submitted.Sell += size
			}
		}

		summary, err := svc.AdvanceTick()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counted.Buy += summary.BuyVolume
		counted.Sell += summary.SellVolume

		if counted != submitted {
			t.Fatalf("submitted %+v, counted %+v", submitted, counted)
		}
	})
}
