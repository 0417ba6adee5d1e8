package analytics

import (
	"sort"
	"time"

	"goldCloserBot/internal/domain"
)

// Metrics summarizes realized group closures for external reporting.
type Metrics struct {
	TotalClosures    int
	Successful       int
	Failed           int
	SuccessRate      float64
	PositionsRetired int
	TotalVolume      float64

	TotalExpectedPnL float64
	TotalRealizedPnL float64
	// AvgSlippage is the mean of (realized - expected) per closure; negative
	// means closures realized less than the engine expected.
	AvgSlippage float64

	ByLabel map[string]*LabelMetrics // keyed by mode/tier tag

	FirstAt time.Time
	LastAt  time.Time
}

// LabelMetrics breaks the totals down per mode or tier.
type LabelMetrics struct {
	Closures         int
	PositionsRetired int
	RealizedPnL      float64
}

// Analyze computes metrics over the given closure records.
func Analyze(records []*domain.ClosureRecord) *Metrics {
	m := &Metrics{ByLabel: make(map[string]*LabelMetrics)}
	if len(records) == 0 {
		return m
	}

	sorted := make([]*domain.ClosureRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ClosedAt.Before(sorted[j].ClosedAt) })

	var slippage float64
	for _, rec := range sorted {
		m.TotalClosures++
		if rec.Success {
			m.Successful++
		} else {
			m.Failed++
		}
		m.PositionsRetired += rec.PositionCount
		m.TotalVolume += rec.TotalVolume
		m.TotalExpectedPnL += rec.ExpectedPnL
		m.TotalRealizedPnL += rec.RealizedPnL
		slippage += rec.RealizedPnL - rec.ExpectedPnL

		lm := m.ByLabel[rec.Label]
		if lm == nil {
			lm = &LabelMetrics{}
			m.ByLabel[rec.Label] = lm
		}
		lm.Closures++
		lm.PositionsRetired += rec.PositionCount
		lm.RealizedPnL += rec.RealizedPnL
	}

	m.SuccessRate = float64(m.Successful) / float64(m.TotalClosures)
	m.AvgSlippage = slippage / float64(m.TotalClosures)
	m.FirstAt = sorted[0].ClosedAt
	m.LastAt = sorted[len(sorted)-1].ClosedAt
	return m
}
