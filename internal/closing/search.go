package closing

import (
	"math"
	"sort"

	"goldCloserBot/internal/domain"
)

// searchParams parametrize one enumeration run. Modal and tier strategies
// share the same enumerator and rule set; only the parameters differ.
type searchParams struct {
	minSize         int
	maxSize         int
	budget          int
	floor           ProfitFloor
	allowProfitOnly bool
	balanceBonus    bool // apply the imbalance-reduction bonus when scoring
	firstValid      bool // stop at the first valid candidate (SURVIVAL)
}

// searchResult carries the valid candidates plus counters used to pick a
// stable reason category when nothing was found.
type searchResult struct {
	candidates    []domain.CombinationCandidate
	inspected     int
	floorRejected int // candidates that failed only the profit floor (R5)
}

// search enumerates subsets of the given positions under the enumeration
// budget, rejects those violating the hard rules and scores the rest.
// When the budget runs out it returns what was found so far rather than
// failing.
func (e *Engine) search(positions []domain.EnrichedPosition, h domain.PortfolioHealth, p searchParams) searchResult {
	res := searchResult{}
	n := len(positions)
	if n == 0 || p.minSize > n {
		return res
	}

	portfolioHasLoser := false
	for _, pos := range positions {
		if !pos.IsProfitable {
			portfolioHasLoser = true
			break
		}
	}

	maxSize := p.maxSize
	if maxSize > n {
		maxSize = n
	}

	for size := p.minSize; size <= maxSize; size++ {
		stop := false
		forEachCombination(n, size, func(idx []int) bool {
			if res.inspected >= p.budget {
				stop = true
				return false
			}
			res.inspected++

			cand := buildCandidate(positions, idx)
			verdict := checkRules(&cand, portfolioHasLoser, p.allowProfitOnly, p.maxSize, p.floor)
			if verdict == RejectBelowFloor {
				res.floorRejected++
			}
			if verdict != Accepted {
				return true
			}

			cand.Score = e.scoreCandidate(&cand, h, p.balanceBonus)
			res.candidates = append(res.candidates, cand)
			if p.firstValid {
				stop = true
				return false
			}
			return true
		})
		if stop {
			break
		}
	}

	sortCandidates(res.candidates)
	return res
}

// buildCandidate assembles a candidate from the selected indices.
func buildCandidate(positions []domain.EnrichedPosition, idx []int) domain.CombinationCandidate {
	members := make([]domain.EnrichedPosition, 0, len(idx))
	var pnl, volume float64
	for _, i := range idx {
		members = append(members, positions[i])
		pnl += positions[i].CurrentPnL
		volume += positions[i].Volume
	}
	return domain.CombinationCandidate{
		Positions:     members,
		TotalPnL:      pnl,
		TotalVolume:   volume,
		PositionCount: len(members),
	}
}

// scoreCandidate computes the additive mode-dependent score. Profit
// dominates; the reduction bonus rewards retiring more positions per
// execution; the balance bonus rewards shrinking the majority-side surplus;
// the capped age and distance terms nudge the search toward old and
// far-from-market losers.
func (e *Engine) scoreCandidate(c *domain.CombinationCandidate, h domain.PortfolioHealth, withBalance bool) float64 {
	w := e.cfg.Weights
	score := c.TotalPnL * w.Profit
	score += float64(c.PositionCount) * w.Reduction

	if withBalance && h.IsImbalanced {
		majority := c.CountBySide(h.ImbalanceSide)
		minority := c.PositionCount - majority
		if majority > minority {
			score += float64(majority-minority) * w.Balance
		}
	}

	var ageBonus, distBonus float64
	for _, p := range c.Positions {
		if p.IsProfitable {
			continue
		}
		ageBonus += p.AgeMinutes * w.AgePerMinute
		distBonus += p.DistanceFromMarket * w.DistancePerUnit
	}
	score += math.Min(ageBonus, w.AgeCap)
	score += math.Min(distBonus, w.DistanceCap)

	return score
}

// sortCandidates orders candidates best first: highest score, then more
// positions, then smaller total volume (frees more margin per position
// closed), then lowest leading ticket for full determinism.
func sortCandidates(cands []domain.CombinationCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := &cands[i], &cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PositionCount != b.PositionCount {
			return a.PositionCount > b.PositionCount
		}
		if a.TotalVolume != b.TotalVolume {
			return a.TotalVolume < b.TotalVolume
		}
		return a.Positions[0].Ticket < b.Positions[0].Ticket
	})
}

// balanceOrdered reorders positions so the majority-direction ones, sorted
// by distance from market descending, are enumerated first. With a bounded
// budget this seeds the BALANCE search from the positions whose closure
// most improves directional balance.
func balanceOrdered(positions []domain.EnrichedPosition, h domain.PortfolioHealth) []domain.EnrichedPosition {
	if !h.IsImbalanced {
		return positions
	}
	ordered := make([]domain.EnrichedPosition, 0, len(positions))
	rest := make([]domain.EnrichedPosition, 0, len(positions))
	for _, p := range positions {
		if p.Direction == h.ImbalanceSide {
			ordered = append(ordered, p)
		} else {
			rest = append(rest, p)
		}
	}
	byDistanceDesc := func(s []domain.EnrichedPosition) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].DistanceFromMarket > s[j].DistanceFromMarket
		})
	}
	byDistanceDesc(ordered)
	byDistanceDesc(rest)
	return append(ordered, rest...)
}

// forEachCombination invokes fn with every k-combination of {0..n-1} in
// lexicographic order until fn returns false.
func forEachCombination(n, k int, fn func(idx []int) bool) {
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		// Advance to the next combination.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
