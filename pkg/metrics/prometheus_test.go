package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderTick(t *testing.T) {
	r := New()

	r.RecordTick(16.5, 120, 20, 40, 30, 0.0001)
	r.RecordTick(17.0, 10, 0, 0, 0, 0.0001)

	if got := testutil.ToFloat64(r.ticks); got != 2 {
		t.Errorf("expected 2 ticks, got %v", got)
	}
	if got := testutil.ToFloat64(r.price); got != 17.0 {
		t.Errorf("expected price 17, got %v", got)
	}
	if got := testutil.ToFloat64(r.volume.WithLabelValues("buy")); got != 130 {
		t.Errorf("expected buy volume 130, got %v", got)
	}
	if got := testutil.ToFloat64(r.volume.WithLabelValues("cover")); got != 40 {
		t.Errorf("expected cover volume 40, got %v", got)
	}
	if got := testutil.ToFloat64(r.discarded); got != 30 {
		t.Errorf("expected discarded 30, got %v", got)
	}
}

func TestRecorderFlags(t *testing.T) {
	r := New()

	r.RecordGateFlip(false)
	if got := testutil.ToFloat64(r.buyAllowed); got != 0 {
		t.Errorf("expected buy_allowed 0, got %v", got)
	}
	r.RecordHype(true, true)
	r.RecordHype(true, false)
	if got := testutil.ToFloat64(r.hypeIgnitions); got != 1 {
		t.Errorf("expected 1 ignition, got %v", got)
	}
	if got := testutil.ToFloat64(r.hype); got != 1 {
		t.Errorf("expected hype 1, got %v", got)
	}

	// Two recorders do not collide on registration.
	_ = New()
}
