package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"goldCloserBot/internal/closing"
	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/health"
)

// Policy is the mode/tier parameter table for the combination engine,
// loaded from YAML. Every field has a default, so a missing file yields a
// fully working engine; a present file overrides only what it sets.
type Policy struct {
	WrongSideBalance   float64 `yaml:"wrong_side_balance"`
	WrongSideSurvival  float64 `yaml:"wrong_side_survival"`
	ImbalanceThreshold float64 `yaml:"imbalance_threshold"`

	MinGroupSize                int     `yaml:"min_group_size"`
	EnumerationBudget           int     `yaml:"enumeration_budget"`
	AllowProfitOnlyWhenNoLosses bool    `yaml:"allow_profit_only_when_no_losses"`
	SurvivalMinProfit           float64 `yaml:"survival_min_profit"`
	FloorCap                    float64 `yaml:"floor_cap"`

	Floor   FloorPolicy  `yaml:"floor"`
	Weights WeightPolicy `yaml:"weights"`
	Modes   ModePolicies `yaml:"modes"`
	Tiers   []TierPolicy `yaml:"tiers"`
}

// FloorPolicy selects and parametrizes the minimum-profit floor strategy.
type FloorPolicy struct {
	Kind        string  `yaml:"kind"` // "hybrid", "lot" or "count"
	PerLot      float64 `yaml:"per_lot"`
	PerPosition float64 `yaml:"per_position"`
	Cap         float64 `yaml:"cap"`
}

// WeightPolicy mirrors closing.Weights in YAML form.
type WeightPolicy struct {
	Profit          float64 `yaml:"profit"`
	Reduction       float64 `yaml:"reduction"`
	Balance         float64 `yaml:"balance"`
	AgePerMinute    float64 `yaml:"age_per_minute"`
	AgeCap          float64 `yaml:"age_cap"`
	DistancePerUnit float64 `yaml:"distance_per_unit"`
	DistanceCap     float64 `yaml:"distance_cap"`
}

// ModePolicies hold the per-mode search limits.
type ModePolicies struct {
	Normal   ModePolicy `yaml:"normal"`
	Balance  ModePolicy `yaml:"balance"`
	Survival ModePolicy `yaml:"survival"`
}

// ModePolicy is one mode's search limits.
type ModePolicy struct {
	MaxGroupSize int `yaml:"max_group_size"`
}

// TierPolicy is one urgency tier of the cleanup variant.
type TierPolicy struct {
	Name            string  `yaml:"name"`
	Priority        int     `yaml:"priority"`
	MinProfitPerLot float64 `yaml:"min_profit_per_lot"`
	MaxGroupSize    int     `yaml:"max_group_size"`
}

// DefaultPolicy returns the in-code defaults, matching closing.DefaultConfig
// and health.DefaultConfig.
func DefaultPolicy() Policy {
	ec := closing.DefaultConfig()
	hc := health.DefaultConfig()

	tiers := make([]TierPolicy, 0, len(ec.Tiers))
	for _, t := range ec.Tiers {
		tiers = append(tiers, TierPolicy{
			Name:            string(t.Name),
			Priority:        t.Priority,
			MinProfitPerLot: t.MinProfitPerLot,
			MaxGroupSize:    t.MaxGroupSize,
		})
	}

	hybrid := ec.Floor.(closing.HybridFloor)
	return Policy{
		WrongSideBalance:   hc.BalanceThreshold,
		WrongSideSurvival:  hc.SurvivalThreshold,
		ImbalanceThreshold: hc.ImbalanceThreshold,

		MinGroupSize:                ec.MinGroupSize,
		EnumerationBudget:           ec.EnumerationBudget,
		AllowProfitOnlyWhenNoLosses: ec.AllowProfitOnlyWhenNoLosses,
		SurvivalMinProfit:           ec.SurvivalMinProfit,
		FloorCap:                    ec.FloorCap,

		Floor: FloorPolicy{
			Kind:        "hybrid",
			PerLot:      hybrid.PerLot,
			PerPosition: hybrid.PerPosition,
			Cap:         hybrid.Cap,
		},
		Weights: WeightPolicy{
			Profit:          ec.Weights.Profit,
			Reduction:       ec.Weights.Reduction,
			Balance:         ec.Weights.Balance,
			AgePerMinute:    ec.Weights.AgePerMinute,
			AgeCap:          ec.Weights.AgeCap,
			DistancePerUnit: ec.Weights.DistancePerUnit,
			DistanceCap:     ec.Weights.DistanceCap,
		},
		Modes: ModePolicies{
			Normal:   ModePolicy{MaxGroupSize: ec.Normal.MaxGroupSize},
			Balance:  ModePolicy{MaxGroupSize: ec.Balance.MaxGroupSize},
			Survival: ModePolicy{MaxGroupSize: ec.Survival.MaxGroupSize},
		},
		Tiers: tiers,
	}
}

// LoadPolicy reads the policy table from path. A missing file is not an
// error: the defaults apply. A present but malformed file is an error, so
// a typo never silently reverts a deployment to defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return policy, nil
		}
		return Policy{}, fmt.Errorf("failed to read policy file '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file '%s': %w", path, err)
	}
	return policy, nil
}

// EngineConfig converts the policy table into the engine configuration.
func (p Policy) EngineConfig() (closing.Config, error) {
	floor, err := p.floorStrategy()
	if err != nil {
		return closing.Config{}, err
	}

	tiers := make([]closing.TierParams, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		tiers = append(tiers, closing.TierParams{
			Name:            domain.Tier(t.Name),
			Priority:        t.Priority,
			MinProfitPerLot: t.MinProfitPerLot,
			MaxGroupSize:    t.MaxGroupSize,
		})
	}

	return closing.Config{
		MinGroupSize:                p.MinGroupSize,
		EnumerationBudget:           p.EnumerationBudget,
		AllowProfitOnlyWhenNoLosses: p.AllowProfitOnlyWhenNoLosses,
		SurvivalMinProfit:           p.SurvivalMinProfit,
		FloorCap:                    p.FloorCap,
		Weights: closing.Weights{
			Profit:          p.Weights.Profit,
			Reduction:       p.Weights.Reduction,
			Balance:         p.Weights.Balance,
			AgePerMinute:    p.Weights.AgePerMinute,
			AgeCap:          p.Weights.AgeCap,
			DistancePerUnit: p.Weights.DistancePerUnit,
			DistanceCap:     p.Weights.DistanceCap,
		},
		Normal:   closing.ModeParams{MaxGroupSize: p.Modes.Normal.MaxGroupSize},
		Balance:  closing.ModeParams{MaxGroupSize: p.Modes.Balance.MaxGroupSize},
		Survival: closing.ModeParams{MaxGroupSize: p.Modes.Survival.MaxGroupSize},
		Tiers:    tiers,
		Floor:    floor,
	}, nil
}

// HealthConfig converts the policy table into classifier thresholds.
func (p Policy) HealthConfig() health.Config {
	return health.Config{
		BalanceThreshold:   p.WrongSideBalance,
		SurvivalThreshold:  p.WrongSideSurvival,
		ImbalanceThreshold: p.ImbalanceThreshold,
	}
}

func (p Policy) floorStrategy() (closing.ProfitFloor, error) {
	switch p.Floor.Kind {
	case "", "hybrid":
		return closing.HybridFloor{PerLot: p.Floor.PerLot, PerPosition: p.Floor.PerPosition, Cap: p.Floor.Cap}, nil
	case "lot":
		return closing.LotFloor{PerLot: p.Floor.PerLot, Cap: p.Floor.Cap}, nil
	case "count":
		return closing.CountFloor{PerPosition: p.Floor.PerPosition, Cap: p.Floor.Cap}, nil
	default:
		return nil, fmt.Errorf("unknown floor kind '%s' (want hybrid, lot or count)", p.Floor.Kind)
	}
}
