package health

import (
	"fmt"

	"goldCloserBot/internal/domain"
)

// Config holds the classification thresholds.
type Config struct {
	BalanceThreshold   float64 // wrong-side fraction at which BALANCE mode begins
	SurvivalThreshold  float64 // wrong-side fraction above which SURVIVAL mode begins
	ImbalanceThreshold float64 // majority-side fraction above which the portfolio is imbalanced
}

// DefaultConfig returns the standard thresholds: 40% / 70% wrong-side, 70% imbalance.
func DefaultConfig() Config {
	return Config{
		BalanceThreshold:   0.40,
		SurvivalThreshold:  0.70,
		ImbalanceThreshold: 0.70,
	}
}

// Classifier maps a position snapshot to a PortfolioHealth assessment.
type Classifier struct {
	cfg Config
}

// New creates a classifier, validating the threshold ordering.
func New(cfg Config) (*Classifier, error) {
	if cfg.BalanceThreshold <= 0 || cfg.BalanceThreshold >= 1 {
		return nil, fmt.Errorf("balance threshold must be in (0,1), got %f", cfg.BalanceThreshold)
	}
	if cfg.SurvivalThreshold <= cfg.BalanceThreshold || cfg.SurvivalThreshold >= 1 {
		return nil, fmt.Errorf("survival threshold must be in (%f,1), got %f", cfg.BalanceThreshold, cfg.SurvivalThreshold)
	}
	if cfg.ImbalanceThreshold <= 0.5 || cfg.ImbalanceThreshold >= 1 {
		return nil, fmt.Errorf("imbalance threshold must be in (0.5,1), got %f", cfg.ImbalanceThreshold)
	}
	return &Classifier{cfg: cfg}, nil
}

// Classify computes portfolio health for one decision cycle.
//
// A position is wrong-side when it is LONG with an open price above the
// market or SHORT with an open price below it. The wrong-side fraction
// selects the operating mode; the directional imbalance is computed
// independently for the balance-priority strategy.
func (c *Classifier) Classify(positions []domain.EnrichedPosition, currentPrice float64) domain.PortfolioHealth {
	h := domain.PortfolioHealth{Mode: domain.ModeNormal, TotalCount: len(positions)}
	if len(positions) == 0 {
		return h
	}

	for _, p := range positions {
		switch p.Direction {
		case domain.Long:
			h.LongCount++
			if p.OpenPrice > currentPrice {
				h.WrongSideLongs++
			}
		case domain.Short:
			h.ShortCount++
			if p.OpenPrice < currentPrice {
				h.WrongSideShorts++
			}
		}
	}

	wrong := h.WrongSideLongs + h.WrongSideShorts
	h.WrongSideFraction = float64(wrong) / float64(h.TotalCount)

	switch {
	case h.WrongSideFraction > c.cfg.SurvivalThreshold:
		h.Mode = domain.ModeSurvival
	case h.WrongSideFraction >= c.cfg.BalanceThreshold:
		h.Mode = domain.ModeBalance
	default:
		h.Mode = domain.ModeNormal
	}

	majority := h.LongCount
	side := domain.Long
	if h.ShortCount > h.LongCount {
		majority = h.ShortCount
		side = domain.Short
	}
	if float64(majority)/float64(h.TotalCount) > c.cfg.ImbalanceThreshold {
		h.IsImbalanced = true
		h.ImbalanceSide = side
	}

	return h
}
