package domain

import "time"

// ClosureRecord is the append-only bookkeeping entry for one realized group
// closure, used for external reporting.
type ClosureRecord struct {
	ID            int64 // Assigned by the repository
	Symbol        string
	ClosedAt      time.Time
	Label         string // mode or tier tag explaining why the group was formed
	Tickets       []int64
	PositionCount int
	TotalVolume   float64
	ExpectedPnL   float64 // total P&L at decision time
	RealizedPnL   float64 // total P&L reported back by the execution collaborator
	Success       bool    // false when any ticket failed to close
}
