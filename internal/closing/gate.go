package closing

import (
	"context"
	"fmt"

	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/ports"
)

// Gate is the final safety check before execution. It recomputes the chosen
// candidate's net P&L from authoritative per-ticket profit figures fetched
// fresh from the venue, guarding against staleness between the scan and the
// close attempt.
type Gate struct {
	logger ports.Logger
}

// NewGate creates a safety gate.
func NewGate(logger ports.Logger) (*Gate, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for safety gate")
	}
	return &Gate{logger: logger}, nil
}

// Approve verifies the candidate against live per-ticket profits. A missing
// ticket or a recomputed total that is not strictly positive vetoes the
// execution; the cycle then produces no action and the next cycle
// re-evaluates from fresh data.
func (g *Gate) Approve(ctx context.Context, c *domain.CombinationCandidate, profits map[int64]float64) error {
	if c == nil || len(c.Positions) == 0 {
		return fmt.Errorf("empty candidate: %w", ports.ErrInvalidRequest)
	}

	total := 0.0
	for _, p := range c.Positions {
		profit, ok := profits[p.Ticket]
		if !ok {
			g.logger.Warn(ctx, "Safety gate veto: ticket no longer open",
				map[string]interface{}{"ticket": p.Ticket})
			return fmt.Errorf("ticket %d: %w", p.Ticket, ports.ErrTicketVanished)
		}
		total += profit
	}

	if total <= 0 {
		g.logger.Warn(ctx, "Safety gate veto: final P&L check failed",
			map[string]interface{}{"expectedPnL": c.TotalPnL, "recomputedPnL": total})
		return fmt.Errorf("recomputed total %.2f: %w", total, ports.ErrFinalCheckFailed)
	}

	g.logger.Debug(ctx, "Safety gate passed",
		map[string]interface{}{"recomputedPnL": total, "positions": c.PositionCount})
	return nil
}
