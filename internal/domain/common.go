package domain

// Direction represents the side of an open position (LONG or SHORT).
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// Mode is the operating regime derived from portfolio health.
type Mode string

const (
	ModeNormal   Mode = "NORMAL"   // healthy portfolio, maximize realized profit
	ModeBalance  Mode = "BALANCE"  // stressed portfolio, restore directional balance
	ModeSurvival Mode = "SURVIVAL" // crisis portfolio, close something quickly
)

// Tier is the urgency class used by the cleanup variant of the engine.
// Tiers are tried in priority order; the most urgent tier that yields a
// valid group wins.
type Tier string

const (
	TierLightning Tier = "LIGHTNING"
	TierSmart     Tier = "SMART"
	TierMaximum   Tier = "MAXIMUM"
)

// ReasonKind is a stable category attached to every ClosureDecision so
// callers can distinguish "no action needed" from degraded or failed cycles.
type ReasonKind string

const (
	ReasonClose         ReasonKind = "CLOSE"
	ReasonNoPositions   ReasonKind = "NO_POSITIONS"
	ReasonNoCombination ReasonKind = "NO_VALID_COMBINATION"
	ReasonBelowFloor    ReasonKind = "BELOW_PROFIT_FLOOR"
	ReasonSafetyVeto    ReasonKind = "SAFETY_VETO"
	ReasonInternalError ReasonKind = "INTERNAL_ERROR"
)
