package analytics

import (
	"math"
	"testing"
	"time"

	"goldCloserBot/internal/domain"
)

func rec(id int64, closedAt time.Time, label string, count int, expected, realized float64, success bool) *domain.ClosureRecord {
	return &domain.ClosureRecord{
		ID:            id,
		Symbol:        "PAXGUSDT",
		ClosedAt:      closedAt,
		Label:         label,
		PositionCount: count,
		TotalVolume:   0.1 * float64(count),
		ExpectedPnL:   expected,
		RealizedPnL:   realized,
		Success:       success,
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	m := Analyze(nil)
	if m.TotalClosures != 0 || len(m.ByLabel) != 0 {
		t.Errorf("empty input should yield zeroed metrics, got %+v", m)
	}
}

func TestAnalyzeTotals(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	records := []*domain.ClosureRecord{
		rec(2, base.Add(time.Hour), "LIGHTNING", 3, 10.0, 9.0, true),
		rec(1, base, "NORMAL", 2, 5.0, 5.5, true),
		rec(3, base.Add(2*time.Hour), "NORMAL", 2, 4.0, -1.0, false),
	}

	m := Analyze(records)

	if m.TotalClosures != 3 || m.Successful != 2 || m.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d", m.TotalClosures, m.Successful, m.Failed)
	}
	if math.Abs(m.SuccessRate-2.0/3.0) > 1e-9 {
		t.Errorf("success rate = %.4f", m.SuccessRate)
	}
	if m.PositionsRetired != 7 {
		t.Errorf("positions retired = %d, want 7", m.PositionsRetired)
	}
	if math.Abs(m.TotalExpectedPnL-19.0) > 1e-9 || math.Abs(m.TotalRealizedPnL-13.5) > 1e-9 {
		t.Errorf("pnl totals = %.2f expected / %.2f realized", m.TotalExpectedPnL, m.TotalRealizedPnL)
	}
	// (9-10) + (5.5-5) + (-1-4) = -5.5 over 3 closures
	if math.Abs(m.AvgSlippage-(-5.5/3.0)) > 1e-9 {
		t.Errorf("avg slippage = %.4f", m.AvgSlippage)
	}
	if !m.FirstAt.Equal(base) || !m.LastAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("time range = %s - %s", m.FirstAt, m.LastAt)
	}
}

func TestAnalyzeByLabel(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	records := []*domain.ClosureRecord{
		rec(1, base, "NORMAL", 2, 5.0, 5.0, true),
		rec(2, base.Add(time.Hour), "NORMAL", 3, 7.0, 6.0, true),
		rec(3, base.Add(2*time.Hour), "LIGHTNING", 2, 4.0, 4.0, true),
	}

	m := Analyze(records)

	normal := m.ByLabel["NORMAL"]
	if normal == nil || normal.Closures != 2 || normal.PositionsRetired != 5 {
		t.Fatalf("NORMAL bucket = %+v", normal)
	}
	if math.Abs(normal.RealizedPnL-11.0) > 1e-9 {
		t.Errorf("NORMAL realized = %.2f", normal.RealizedPnL)
	}
	if m.ByLabel["LIGHTNING"].Closures != 1 {
		t.Errorf("LIGHTNING bucket = %+v", m.ByLabel["LIGHTNING"])
	}
}
