package engine

import "testing"

func TestHistoryPushAndOrder(t *testing.T) {
	h := NewHistory(5)

	for i := 0; i < 3; i++ {
		h.Push(Sample{Time: float64(i)})
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", h.Len())
	}
	for i := 0; i < 3; i++ {
		if h.At(i).Time != float64(i) {
			t.Errorf("sample %d: expected time %d, got %f", i, i, h.At(i).Time)
		}
	}
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(5)

	for i := 0; i < 12; i++ {
		h.Push(Sample{Time: float64(i)})
	}
	if h.Len() != 5 {
		t.Fatalf("expected capacity 5, got %d", h.Len())
	}
	// Evicts oldest: entries 7..11 remain.
	if h.At(0).Time != 7 {
		t.Errorf("expected oldest time 7, got %f", h.At(0).Time)
	}
	latest, ok := h.Latest()
	if !ok || latest.Time != 11 {
		t.Errorf("expected latest time 11, got %f", latest.Time)
	}
}

func TestHistorySnapshotIsCopy(t *testing.T) {
	h := NewHistory(4)
	h.Push(Sample{Time: 1, Value: 2})

	snap := h.Snapshot()
	snap[0].Value = 99

	if h.At(0).Value != 2 {
		t.Error("mutating the snapshot must not affect the history")
	}
}

func TestHistoryLatestEmpty(t *testing.T) {
	h := NewHistory(4)
	if _, ok := h.Latest(); ok {
		t.Error("expected no latest sample on empty history")
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory(4)
	h.Push(Sample{Time: 1})
	h.Reset()
	if h.Len() != 0 {
		t.Errorf("expected empty history after reset, got %d", h.Len())
	}
}
