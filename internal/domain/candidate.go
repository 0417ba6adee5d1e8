package domain

// CombinationCandidate is a scored subset of positions proposed for closing.
// It is transient: produced and consumed within a single decision cycle.
type CombinationCandidate struct {
	Positions     []EnrichedPosition // members, in enumeration order
	TotalPnL      float64
	TotalVolume   float64
	PositionCount int
	Score         float64
	Mode          Mode   // set when produced by a modal strategy
	Tier          Tier   // set when produced by the tiered cleanup strategy
	Reason        string // human-readable explanation of why the group was formed
}

// Tickets returns the member tickets in order.
func (c *CombinationCandidate) Tickets() []int64 {
	tickets := make([]int64, 0, len(c.Positions))
	for _, p := range c.Positions {
		tickets = append(tickets, p.Ticket)
	}
	return tickets
}

// LosingCount returns how many members are not profitable.
func (c *CombinationCandidate) LosingCount() int {
	n := 0
	for _, p := range c.Positions {
		if !p.IsProfitable {
			n++
		}
	}
	return n
}

// CountBySide returns how many members are on the given direction.
func (c *CombinationCandidate) CountBySide(d Direction) int {
	n := 0
	for _, p := range c.Positions {
		if p.Direction == d {
			n++
		}
	}
	return n
}

// ClosureDecision is the engine's output for one decision cycle.
type ClosureDecision struct {
	ShouldClose bool
	Candidate   *CombinationCandidate // nil unless ShouldClose
	Reason      string
	Kind        ReasonKind
}
