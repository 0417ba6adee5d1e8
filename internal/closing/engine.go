package closing

import (
	"context"
	"fmt"

	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/ports"
)

// Engine is the position-closing combination engine. It enumerates and
// scores candidate subsets of open positions under the active mode's
// objective and selects the best valid one.
//
// The engine is pure CPU work over read-only views: it performs no I/O and
// never mutates broker state.
type Engine struct {
	cfg    Config
	logger ports.Logger
}

// New creates an engine instance.
func New(cfg Config, logger ports.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for closing engine")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Analyze runs the mode-appropriate combination search for one decision
// cycle and returns a closure decision.
//
// It never propagates a panic: an unexpected internal failure degrades the
// cycle to a should-not-close decision with an internal-error reason kind,
// so the caller is never left executing on default data.
func (e *Engine) Analyze(ctx context.Context, positions []domain.EnrichedPosition, h domain.PortfolioHealth) (dec domain.ClosureDecision) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, fmt.Errorf("panic in combination analysis: %v", r), "Decision cycle degraded to no-action")
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

	ordered := positions
	params := searchParams{
		minSize:         e.cfg.MinGroupSize,
		budget:          e.cfg.EnumerationBudget,
		floor:           e.cfg.Floor,
		allowProfitOnly: e.cfg.AllowProfitOnlyWhenNoLosses,
	}

	switch h.Mode {
	case domain.ModeBalance:
		// Seed the search from the majority side and reward candidates
		// that reduce the imbalance, even at lower absolute profit.
		params.maxSize = e.cfg.Balance.MaxGroupSize
		params.balanceBonus = true
		ordered = balanceOrdered(positions, h)
	case domain.ModeSurvival:
		// Close something quickly: smallest positive floor, first valid
		// candidate wins.
		params.maxSize = e.cfg.Survival.MaxGroupSize
		params.floor = FixedFloor{Min: e.cfg.SurvivalMinProfit}
		params.firstValid = true
	default:
		params.maxSize = e.cfg.Normal.MaxGroupSize
	}

	res := e.search(ordered, h, params)
	e.logger.Debug(ctx, "Combination search finished", map[string]interface{}{
		"mode":       string(h.Mode),
		"inspected":  res.inspected,
		"candidates": len(res.candidates),
	})

	return e.selectBest(res, h.Mode, "")
}

// selectBest turns a ranked search result into a closure decision. Pure:
// re-running it on the same result yields the same decision and reason
// category.
func (e *Engine) selectBest(res searchResult, mode domain.Mode, tier domain.Tier) domain.ClosureDecision {
	if len(res.candidates) == 0 {
		if res.floorRejected > 0 {
			return domain.ClosureDecision{
				ShouldClose: false,
				Reason:      "no combination cleared the profit floor",
				Kind:        domain.ReasonBelowFloor,
			}
		}
		return domain.ClosureDecision{
			ShouldClose: false,
			Reason:      "no valid combination found",
			Kind:        domain.ReasonNoCombination,
		}
	}

	best := res.candidates[0]
	best.Mode = mode
	best.Tier = tier
	label := string(mode)
	if tier != "" {
		label = string(tier)
	}
	best.Reason = fmt.Sprintf("%d-position profitable group, total pnl %.2f (%s)",
		best.PositionCount, best.TotalPnL, label)

	return domain.ClosureDecision{
		ShouldClose: true,
		Candidate:   &best,
		Reason:      best.Reason,
		Kind:        domain.ReasonClose,
	}
}
