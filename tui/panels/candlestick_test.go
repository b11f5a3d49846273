package panels

import (
	"strings"
	"testing"

	"github.com/zappabad/squeeze/internal/market"
)

func TestBuildCandlesGroupsTicks(t *testing.T) {
	prices := []float64{10, 12, 9, 11, 13, 14, 8}
	vols := []market.VolumePair{
		{Buy: 1, Sell: 2}, {Buy: 3}, {Sell: 4},
		{Buy: 5}, {Buy: 6, Sell: 1}, {}, {Sell: 9},
	}

	candles := BuildCandles(prices, vols, 3)
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}

	first := candles[0]
	if first.Open != 10 || first.Close != 9 || first.High != 12 || first.Low != 9 {
		t.Errorf("unexpected first candle %+v", first)
	}
	if first.Volume.Buy != 4 || first.Volume.Sell != 6 {
		t.Errorf("expected volume 4/6, got %d/%d", first.Volume.Buy, first.Volume.Sell)
	}
	if first.Tick != 1 {
		t.Errorf("expected first tick 1, got %d", first.Tick)
	}

	last := candles[2]
	if last.Open != 8 || last.Close != 8 || last.Tick != 7 {
		t.Errorf("expected partial candle at tick 7 with price 8, got %+v", last)
	}
	if last.Volume.Sell != 9 {
		t.Errorf("expected sell 9, got %d", last.Volume.Sell)
	}
}

func TestBuildCandlesShortVolumeAndBadPeriod(t *testing.T) {
	candles := BuildCandles([]float64{1, 2}, nil, 0)
	if len(candles) != 2 {
		t.Fatalf("expected one candle per tick, got %d", len(candles))
	}
	if candles[1].Volume != (market.VolumePair{}) {
		t.Errorf("expected empty volume, got %+v", candles[1].Volume)
	}

	if got := BuildCandles(nil, nil, 5); len(got) != 0 {
		t.Errorf("expected no candles, got %d", len(got))
	}
}

func TestCandlestickPanelRenders(t *testing.T) {
	p := NewCandlestickPanel()
	p.SetSize(60, 20)

	if !strings.Contains(p.View(), "No ticks yet") {
		t.Error("expected empty placeholder")
	}

	p.SetCandles(BuildCandles([]float64{15, 15.5, 16, 15.8, 17}, nil, 2))
	out := p.View()
	if !strings.Contains(out, "17.00") {
		t.Errorf("expected last close in title, got:\n%s", out)
	}
	if !strings.Contains(out, "t1") || !strings.Contains(out, "t5") {
		t.Errorf("expected tick labels, got:\n%s", out)
	}
}

func TestBarCell(t *testing.T) {
	if c := barCell(0, 10, 4, 1); c != ' ' {
		t.Errorf("expected blank for zero volume, got %q", c)
	}
	if c := barCell(0.1, 10, 4, 1); c != '█' {
		t.Errorf("expected a visible bar for tiny volume, got %q", c)
	}
	if c := barCell(5, 10, 4, 3); c != ' ' {
		t.Errorf("expected half bar to stop at row 2, got %q", c)
	}
	if c := barCell(10, 10, 4, 4); c != '█' {
		t.Errorf("expected peak to fill every row, got %q", c)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 10); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}, 10); got != "▁▁▁" {
		t.Errorf("expected flat line, got %q", got)
	}
	if got := Sparkline([]float64{0, 7, 14}, 10); got != "▁▄█" {
		t.Errorf("expected rising line, got %q", got)
	}
	if got := Sparkline([]float64{100, 0, 7, 14}, 3); got != "▁▄█" {
		t.Errorf("expected only the last 3 values, got %q", got)
	}
}
