package closing

import (
	"fmt"
	"sort"

	"goldCloserBot/internal/domain"
)

// Weights are the additive scoring weights. Profit dominates; the age and
// distance terms are individually capped so they can never outvote it.
type Weights struct {
	Profit          float64 // multiplier on total P&L
	Reduction       float64 // bonus per position retired
	Balance         float64 // bonus per unit of majority-side surplus removed
	AgePerMinute    float64 // bonus per minute of age on losing members
	AgeCap          float64
	DistancePerUnit float64 // bonus per pricing unit of distance on losing members
	DistanceCap     float64
}

// ModeParams are the per-mode search limits.
type ModeParams struct {
	MaxGroupSize int
}

// TierParams configure one urgency tier of the cleanup variant.
type TierParams struct {
	Name            domain.Tier
	Priority        int     // lower runs first
	MinProfitPerLot float64 // per-lot profit floor for groups in this tier
	MaxGroupSize    int
}

// Config holds all parameters of the combination engine.
type Config struct {
	MinGroupSize      int
	EnumerationBudget int // cap on subsets inspected per search

	// AllowProfitOnlyWhenNoLosses permits an all-profitable group when the
	// portfolio contains no losing position at all. The strict engine keeps
	// this false; the cleanup deployments may enable it.
	AllowProfitOnlyWhenNoLosses bool

	// SurvivalMinProfit is the relaxed floor used in SURVIVAL mode: the
	// smallest positive threshold configured.
	SurvivalMinProfit float64

	// FloorCap bounds every floor formula so large groups never face an
	// unreasonable bar.
	FloorCap float64

	Weights  Weights
	Normal   ModeParams
	Balance  ModeParams
	Survival ModeParams
	Tiers    []TierParams

	// Floor is the pluggable minimum-profit strategy applied as rule R5 in
	// the modal searches. Tier searches use per-tier lot floors instead.
	Floor ProfitFloor
}

// DefaultConfig returns the standard engine parameters.
func DefaultConfig() Config {
	return Config{
		MinGroupSize:      2,
		EnumerationBudget: 800,
		SurvivalMinProfit: 0.10,
		FloorCap:          25.0,
		Weights: Weights{
			Profit:          10.0,
			Reduction:       5.0,
			Balance:         8.0,
			AgePerMinute:    0.01,
			AgeCap:          10.0,
			DistancePerUnit: 0.5,
			DistanceCap:     10.0,
		},
		Normal:   ModeParams{MaxGroupSize: 8},
		Balance:  ModeParams{MaxGroupSize: 8},
		Survival: ModeParams{MaxGroupSize: 4},
		Tiers: []TierParams{
			{Name: domain.TierLightning, Priority: 1, MinProfitPerLot: 20.0, MaxGroupSize: 5},
			{Name: domain.TierSmart, Priority: 2, MinProfitPerLot: 50.0, MaxGroupSize: 8},
			{Name: domain.TierMaximum, Priority: 3, MinProfitPerLot: 100.0, MaxGroupSize: 12},
		},
		Floor: HybridFloor{PerLot: 5.0, PerPosition: 0.5, Cap: 25.0},
	}
}

func (c *Config) validate() error {
	if c.MinGroupSize < 1 {
		return fmt.Errorf("minimum group size must be at least 1, got %d", c.MinGroupSize)
	}
	if c.EnumerationBudget <= 0 {
		return fmt.Errorf("enumeration budget must be positive, got %d", c.EnumerationBudget)
	}
	if c.SurvivalMinProfit <= 0 {
		return fmt.Errorf("survival minimum profit must be positive, got %f", c.SurvivalMinProfit)
	}
	if c.Weights.Profit <= 0 {
		return fmt.Errorf("profit weight must be positive, got %f", c.Weights.Profit)
	}
	for _, m := range []ModeParams{c.Normal, c.Balance, c.Survival} {
		if m.MaxGroupSize < c.MinGroupSize {
			return fmt.Errorf("mode max group size %d below minimum group size %d", m.MaxGroupSize, c.MinGroupSize)
		}
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one cleanup tier is required")
	}
	seen := make(map[int]bool, len(c.Tiers))
	for _, t := range c.Tiers {
		if t.MinProfitPerLot <= 0 {
			return fmt.Errorf("tier %s: profit-per-lot floor must be positive, got %f", t.Name, t.MinProfitPerLot)
		}
		if t.MaxGroupSize < c.MinGroupSize {
			return fmt.Errorf("tier %s: max group size %d below minimum group size %d", t.Name, t.MaxGroupSize, c.MinGroupSize)
		}
		if seen[t.Priority] {
			return fmt.Errorf("tier %s: duplicate priority %d", t.Name, t.Priority)
		}
		seen[t.Priority] = true
	}
	if c.Floor == nil {
		return fmt.Errorf("profit floor strategy is required")
	}
	return nil
}

// tiersByPriority returns the tiers sorted most-urgent first.
func (c *Config) tiersByPriority() []TierParams {
	tiers := make([]TierParams, len(c.Tiers))
	copy(tiers, c.Tiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Priority < tiers[j].Priority })
	return tiers
}
