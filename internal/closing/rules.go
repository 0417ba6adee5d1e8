package closing

import "goldCloserBot/internal/domain"

// RejectReason identifies which hard rule disqualified a candidate.
type RejectReason int

const (
	Accepted RejectReason = iota
	RejectNotProfitable   // R1: total P&L not strictly positive
	RejectSoloProfitTake  // R2: single profitable position on its own
	RejectNoLoserIncluded // R3: all-profitable group while losers remain
	RejectTooLarge        // R4: group exceeds the per-round size ceiling
	RejectBelowFloor      // R5: total P&L below the minimum profit floor
)

// String returns the rule tag for logging.
func (r RejectReason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectNotProfitable:
		return "not profitable"
	case RejectSoloProfitTake:
		return "solo profit-take"
	case RejectNoLoserIncluded:
		return "no loser included"
	case RejectTooLarge:
		return "group too large"
	case RejectBelowFloor:
		return "below profit floor"
	default:
		return "unknown"
	}
}

// checkRules applies the hard rejection rules R1-R5 in order, failing fast.
//
// The engine exists to retire losers using winners' profit, not to skim
// profit alone: a group that only takes winners is rejected while any loser
// remains in the portfolio, and may pass without losers only when the
// profit-only relaxation is enabled.
func checkRules(c *domain.CombinationCandidate, portfolioHasLoser, allowProfitOnly bool, maxSize int, floor ProfitFloor) RejectReason {
	// R1: never realize a loss or break even.
	if c.TotalPnL <= 0 {
		return RejectNotProfitable
	}
	// R2: closing "just the winner" is forbidden.
	if c.PositionCount == 1 && c.Positions[0].IsProfitable {
		return RejectSoloProfitTake
	}
	// R3: an all-profitable group must not skim while losers remain.
	if c.LosingCount() == 0 {
		if portfolioHasLoser {
			return RejectNoLoserIncluded
		}
		if !allowProfitOnly {
			return RejectNoLoserIncluded
		}
	}
	// R4: size ceiling.
	if c.PositionCount > maxSize {
		return RejectTooLarge
	}
	// R5: minimum profit floor.
	if c.TotalPnL < floor.Required(c.TotalVolume, c.PositionCount) {
		return RejectBelowFloor
	}
	return Accepted
}
