package view

import (
	"testing"

	"github.com/zappabad/squeeze/internal/broker"
)

func TestActivityTapeWraps(t *testing.T) {
	tape := NewActivityTape(3)
	if got := tape.Last(2); got != nil {
		t.Errorf("expected nil from empty tape, got %v", got)
	}

	for i := int64(1); i <= 5; i++ {
		tape.Append(broker.Activity{Time: i})
	}
	if tape.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", tape.Len())
	}

	got := tape.Last(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []int64{3, 4, 5} {
		if got[i].Time != want {
			t.Errorf("entry %d: expected time %d, got %d", i, want, got[i].Time)
		}
	}

	last := tape.Last(1)
	if len(last) != 1 || last[0].Time != 5 {
		t.Errorf("expected newest entry, got %v", last)
	}
}

func TestActivityTapeZeroCapacity(t *testing.T) {
	tape := NewActivityTape(0)
	tape.Append(broker.Activity{Time: 1})
	tape.Append(broker.Activity{Time: 2})
	got := tape.Last(5)
	if len(got) != 1 || got[0].Time != 2 {
		t.Errorf("expected only the newest entry, got %v", got)
	}
}
