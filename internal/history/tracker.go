package history

import (
	"sync"

	"goldCloserBot/internal/domain"
)

const defaultWindow = 100

// Tracker carries the only state that survives across decision cycles: the
// rolling price peak used for pullback detection and a bounded window of
// recent closure records.
//
// It is owned by the caller and injected into each cycle, which keeps the
// engine itself stateless and trivially testable with synthetic state. All
// methods are safe for concurrent use, though the design assumes at most
// one decision cycle in flight per instrument.
type Tracker struct {
	mu        sync.Mutex
	peak      float64
	window    []*domain.ClosureRecord
	maxWindow int
}

// NewTracker creates a tracker retaining up to maxWindow recent closures
// (the default of 100 when maxWindow is not positive).
func NewTracker(maxWindow int) *Tracker {
	if maxWindow <= 0 {
		maxWindow = defaultWindow
	}
	return &Tracker{maxWindow: maxWindow}
}

// ObservePrice raises the rolling peak when the price makes a new high.
func (t *Tracker) ObservePrice(price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if price > t.peak {
		t.peak = price
	}
}

// Pullback returns the fractional retreat from the rolling peak, 0 when the
// price is at or above the peak or no peak has been observed yet.
func (t *Tracker) Pullback(price float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.peak <= 0 || price >= t.peak {
		return 0
	}
	return (t.peak - price) / t.peak
}

// ResetPeak restarts peak tracking from the given price, typically after a
// profit-taking closure.
func (t *Tracker) ResetPeak(price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peak = price
}

// Append adds a closure record, evicting the oldest when the window is full.
func (t *Tracker) Append(rec *domain.ClosureRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = append(t.window, rec)
	if len(t.window) > t.maxWindow {
		t.window = t.window[len(t.window)-t.maxWindow:]
	}
}

// Recent returns up to n most recent records, newest last.
func (t *Tracker) Recent(n int) []*domain.ClosureRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > len(t.window) {
		n = len(t.window)
	}
	out := make([]*domain.ClosureRecord, n)
	copy(out, t.window[len(t.window)-n:])
	return out
}

// Len returns the number of retained records.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.window)
}
