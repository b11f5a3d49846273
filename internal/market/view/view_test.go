package view

import (
	"sync"
	"testing"

	"github.com/zappabad/squeeze/internal/market"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)

	if _, ok := w.First(); ok {
		t.Error("expected empty window to have no first sample")
	}

	for i := 1; i <= 5; i++ {
		w.Append(float64(i))
	}

	if w.Len() != 3 {
		t.Fatalf("expected len 3, got %d", w.Len())
	}
	vals := w.Values()
	want := []float64{3, 4, 5}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("values[%d]: expected %v, got %v", i, want[i], vals[i])
		}
	}
	if first, _ := w.First(); first != 3 {
		t.Errorf("expected first 3, got %v", first)
	}
	if last, _ := w.Last(); last != 5 {
		t.Errorf("expected last 5, got %v", last)
	}
	if ss := w.SumSquares(); ss != 9+16+25 {
		t.Errorf("expected sum of squares 50, got %v", ss)
	}
}

func TestMarketViewCopies(t *testing.T) {
	v := NewMarketView(4)
	v.Record(10, market.VolumePair{Buy: 5, Sell: 1}, 100)
	v.Record(11, market.VolumePair{Buy: 2}, 90)

	series := v.Series()
	series.Prices[0] = -1
	if got := v.Series().Prices[0]; got != 10 {
		t.Errorf("expected history to be unaffected by caller mutation, got %v", got)
	}

	last := v.PricesLast(5)
	if len(last) != 2 || last[1] != 11 {
		t.Errorf("expected [10 11], got %v", last)
	}
	if got := v.PricesLast(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}

	vols := v.Series().Volumes
	if vols[0].Net() != 4 {
		t.Errorf("expected net 4, got %d", vols[0].Net())
	}
	si := v.Series().ShortInterest
	if len(si) != 2 || si[1] != 90 {
		t.Errorf("expected short interest [100 90], got %v", si)
	}
}

func TestMarketViewSeriesConsistentUnderWrites(t *testing.T) {
	v := NewMarketView(0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			v.Record(float64(i+1), market.VolumePair{Buy: market.Size(i)}, float64(i))
		}
	}()

	for i := 0; i < 500; i++ {
		s := v.Series()
		if len(s.Prices) != len(s.Volumes) || len(s.Prices) != len(s.ShortInterest) {
			t.Fatalf("expected equal lengths, got %d/%d/%d", len(s.Prices), len(s.Volumes), len(s.ShortInterest))
		}
	}
	wg.Wait()

	s := v.Series()
	if len(s.Prices) != 2000 {
		t.Fatalf("expected 2000 entries, got %d", len(s.Prices))
	}
	s.Prices[0] = -1
	if v.Series().Prices[0] != 1 {
		t.Error("expected Series to return a copy")
	}
}
