package closing

import (
	"context"
	"fmt"

	"goldCloserBot/internal/domain"
)

// AnalyzeCleanup runs the urgency-tier variant of the engine, independent of
// the three-mode classification. Tiers are tried most-urgent first; the
// first tier producing at least one valid candidate wins, and candidates
// within a tier are ranked by the usual score and tie-break.
//
// Each tier runs the same hard rules with its own per-lot profit floor and
// size ceiling.
func (e *Engine) AnalyzeCleanup(ctx context.Context, positions []domain.EnrichedPosition, h domain.PortfolioHealth) (dec domain.ClosureDecision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, fmt.Errorf("panic in cleanup analysis: %v", r), "Decision cycle degraded to no-action")
			dec = domain.ClosureDecision{
				ShouldClose: false,
				Reason:      "internal error",
				Kind:        domain.ReasonInternalError,
			}
		}
	}()

	if len(positions) == 0 {
		return domain.ClosureDecision{ShouldClose: false, Reason: "no open positions", Kind: domain.ReasonNoPositions}
	}

	floorRejected := 0
	for _, tier := range e.cfg.tiersByPriority() {
		params := searchParams{
			minSize:         e.cfg.MinGroupSize,
			maxSize:         tier.MaxGroupSize,
			budget:          e.cfg.EnumerationBudget,
			floor:           LotFloor{PerLot: tier.MinProfitPerLot, Cap: e.cfg.FloorCap},
			allowProfitOnly: e.cfg.AllowProfitOnlyWhenNoLosses,
		}

		res := e.search(positions, h, params)
		floorRejected += res.floorRejected
		e.logger.Debug(ctx, "Cleanup tier searched", map[string]interface{}{
			"tier":       string(tier.Name),
			"inspected":  res.inspected,
			"candidates": len(res.candidates),
		})

		if len(res.candidates) > 0 {
			return e.selectBest(res, "", tier.Name)
		}
	}

	if floorRejected > 0 {
		return domain.ClosureDecision{
			ShouldClose: false,
			Reason:      "no combination cleared any tier's profit floor",
			Kind:        domain.ReasonBelowFloor,
		}
	}
	return domain.ClosureDecision{
		ShouldClose: false,
		Reason:      "no valid combination found in any tier",
		Kind:        domain.ReasonNoCombination,
	}
}
