package domain

// PortfolioHealth is the per-cycle classification of portfolio stress.
//
// Two independent signals are exposed: the wrong-side fraction drives the
// three-mode regime used by the modal engine, while the directional
// imbalance ratio drives the balance-priority strategy. Different call
// sites pick one or the other.
type PortfolioHealth struct {
	Mode              Mode    // NORMAL, BALANCE or SURVIVAL
	WrongSideFraction float64 // wrong-side positions / total, in [0,1]
	WrongSideLongs    int
	WrongSideShorts   int

	LongCount  int
	ShortCount int
	TotalCount int

	IsImbalanced  bool      // true when one direction exceeds the imbalance threshold
	ImbalanceSide Direction // majority direction, meaningful only when IsImbalanced
}

// MajorityCount returns the position count of the majority direction.
func (h PortfolioHealth) MajorityCount() int {
	if h.LongCount > h.ShortCount {
		return h.LongCount
	}
	return h.ShortCount
}
