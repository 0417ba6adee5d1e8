package domain

import "time"

// Position is a read-only view over an open position reported by the venue.
// The engine never mutates it; closing happens through the execution client.
type Position struct {
	Ticket    int64     // Venue-assigned unique identifier
	Direction Direction // LONG or SHORT
	Volume    float64   // Lot size, always positive
	OpenPrice float64   // Price at which the position was opened

	// UnrealizedProfit is the authoritative monetary P&L supplied by the
	// venue. Nil when the venue did not report it; the snapshot builder then
	// derives a conservative estimate instead.
	UnrealizedProfit *float64

	OpenedAt time.Time // Zero value when the venue did not report it
}

// EnrichedPosition is a Position plus the per-cycle derived figures the
// combination engine scores on. It is ephemeral: valid for one analysis pass.
type EnrichedPosition struct {
	Position

	CurrentPnL         float64 // Authoritative profit when present, otherwise the fallback estimate
	DistanceFromMarket float64 // |current price - open price| in pricing units
	AgeMinutes         float64 // Minutes since OpenedAt, 0 when unknown
	IsProfitable       bool    // Strictly CurrentPnL > 0
}
