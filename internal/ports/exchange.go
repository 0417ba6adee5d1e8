package ports

import (
	"context"
	"time"
)

// OpenPosition is the raw per-ticket record supplied by the venue feed,
// refreshed once per decision cycle. Fields are unvalidated; the snapshot
// builder validates and drops malformed records.
type OpenPosition struct {
	Ticket    int64
	Direction string   // "LONG"/"BUY" or "SHORT"/"SELL" as reported
	Volume    float64  // lot size
	OpenPrice float64
	Profit    *float64 // authoritative unrealized P&L; nil when not reported
	OpenedAt  time.Time
}

// Quote is a bid/ask snapshot of the instrument.
type Quote struct {
	Bid  float64
	Ask  float64
	Time time.Time
}

// Mid returns the midpoint price.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// Spread returns the ask-bid spread.
func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// PositionFeed supplies the open-position snapshot and the current market
// price. Implemented by the connectivity collaborator.
type PositionFeed interface {
	// OpenPositions returns all currently open positions for the symbol.
	OpenPositions(ctx context.Context, symbol string) ([]OpenPosition, error)
	// Quote returns the current bid/ask for the symbol.
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// CloseResult reports the outcome of closing a single ticket.
type CloseResult struct {
	Ticket      int64
	RealizedPnL float64
	ClosePrice  float64
	ClosedAt    time.Time
}

// ExecutionClient performs the actual closes for an approved ticket list.
// The engine treats execution as at-most-once per decision cycle and never
// retries within a cycle.
type ExecutionClient interface {
	// CloseTicket closes one open ticket at market.
	CloseTicket(ctx context.Context, symbol string, ticket int64) (*CloseResult, error)
}
