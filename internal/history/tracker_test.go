package history

import (
	"testing"
	"time"

	"goldCloserBot/internal/domain"
)

func TestPullback(t *testing.T) {
	tr := NewTracker(10)

	if p := tr.Pullback(2000); p != 0 {
		t.Errorf("pullback without a peak = %.4f, want 0", p)
	}

	tr.ObservePrice(2000)
	tr.ObservePrice(1990) // does not lower the peak

	if p := tr.Pullback(1994); p != (2000-1994)/2000.0 {
		t.Errorf("pullback = %.6f, want %.6f", p, (2000-1994)/2000.0)
	}
	if p := tr.Pullback(2005); p != 0 {
		t.Errorf("price above peak should yield 0, got %.4f", p)
	}

	tr.ResetPeak(1994)
	if p := tr.Pullback(1990); p != (1994-1990)/1994.0 {
		t.Errorf("pullback after reset = %.6f, want %.6f", p, (1994-1990)/1994.0)
	}
}

func TestWindowEviction(t *testing.T) {
	tr := NewTracker(3)
	for i := 1; i <= 5; i++ {
		tr.Append(&domain.ClosureRecord{ID: int64(i), ClosedAt: time.Now()})
	}

	if tr.Len() != 3 {
		t.Fatalf("len = %d, want 3", tr.Len())
	}
	recent := tr.Recent(0)
	if len(recent) != 3 || recent[0].ID != 3 || recent[2].ID != 5 {
		t.Errorf("window should hold records 3..5 oldest first, got %v", ids(recent))
	}
}

func TestRecentLimit(t *testing.T) {
	tr := NewTracker(10)
	for i := 1; i <= 4; i++ {
		tr.Append(&domain.ClosureRecord{ID: int64(i)})
	}

	recent := tr.Recent(2)
	if len(recent) != 2 || recent[0].ID != 3 || recent[1].ID != 4 {
		t.Errorf("Recent(2) = %v, want [3 4]", ids(recent))
	}
}

func TestDefaultWindow(t *testing.T) {
	tr := NewTracker(0)
	if tr.maxWindow != defaultWindow {
		t.Errorf("maxWindow = %d, want %d", tr.maxWindow, defaultWindow)
	}
}

func ids(recs []*domain.ClosureRecord) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
