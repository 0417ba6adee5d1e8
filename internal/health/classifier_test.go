package health

import (
	"testing"

	"goldCloserBot/internal/domain"
)

// at builds a position opened at the given price; profitability is derived
// by the classifier from open price vs market, not from these fields.
func at(ticket int64, dir domain.Direction, openPrice float64) domain.EnrichedPosition {
	return domain.EnrichedPosition{
		Position: domain.Position{Ticket: ticket, Direction: dir, Volume: 0.1, OpenPrice: openPrice},
	}
}

// portfolio builds n positions with the requested number of wrong-side
// longs; the rest are right-side longs. Market price is 2000.
func portfolio(n, wrongSide int) []domain.EnrichedPosition {
	positions := make([]domain.EnrichedPosition, 0, n)
	for i := 0; i < n; i++ {
		open := 1990.0 // long below market: right side
		if i < wrongSide {
			open = 2010.0 // long above market: wrong side
		}
		positions = append(positions, at(int64(i+1), domain.Long, open))
	}
	return positions
}

func mustClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestClassifyModeByWrongSideFraction(t *testing.T) {
	c := mustClassifier(t)

	tests := []struct {
		name      string
		total     int
		wrongSide int
		wantMode  domain.Mode
	}{
		{"10% wrong side is NORMAL", 10, 1, domain.ModeNormal},
		{"50% wrong side is BALANCE", 10, 5, domain.ModeBalance},
		{"85% wrong side is SURVIVAL", 20, 17, domain.ModeSurvival},
		{"exactly 40% enters BALANCE", 10, 4, domain.ModeBalance},
		{"just below 40% stays NORMAL", 100, 39, domain.ModeNormal},
		{"exactly 70% stays BALANCE", 10, 7, domain.ModeBalance},
		{"just above 70% is SURVIVAL", 100, 71, domain.ModeSurvival},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := c.Classify(portfolio(tt.total, tt.wrongSide), 2000)
			if h.Mode != tt.wantMode {
				t.Errorf("mode = %s, want %s (fraction %.2f)", h.Mode, tt.wantMode, h.WrongSideFraction)
			}
		})
	}
}

func TestClassifyWrongSideCounting(t *testing.T) {
	c := mustClassifier(t)
	positions := []domain.EnrichedPosition{
		at(1, domain.Long, 2010),  // wrong: long above market
		at(2, domain.Long, 1990),  // right
		at(3, domain.Short, 1980), // wrong: short below market
		at(4, domain.Short, 2020), // right
	}

	h := c.Classify(positions, 2000)

	if h.WrongSideLongs != 1 || h.WrongSideShorts != 1 {
		t.Errorf("wrong-side counts = %d longs / %d shorts, want 1/1", h.WrongSideLongs, h.WrongSideShorts)
	}
	if h.WrongSideFraction != 0.5 {
		t.Errorf("fraction = %.2f, want 0.50", h.WrongSideFraction)
	}
	if h.LongCount != 2 || h.ShortCount != 2 {
		t.Errorf("side counts = %d/%d, want 2/2", h.LongCount, h.ShortCount)
	}
}

func TestClassifyImbalance(t *testing.T) {
	c := mustClassifier(t)

	t.Run("90% long is imbalanced toward LONG", func(t *testing.T) {
		positions := portfolio(9, 0)
		positions = append(positions, at(10, domain.Short, 2020))
		h := c.Classify(positions, 2000)
		if !h.IsImbalanced || h.ImbalanceSide != domain.Long {
			t.Errorf("imbalance = %v/%s, want true/LONG", h.IsImbalanced, h.ImbalanceSide)
		}
	})

	t.Run("exactly 70% one side is not imbalanced", func(t *testing.T) {
		positions := portfolio(7, 0)
		for i := 0; i < 3; i++ {
			positions = append(positions, at(int64(8+i), domain.Short, 2020))
		}
		h := c.Classify(positions, 2000)
		if h.IsImbalanced {
			t.Errorf("70/30 split should not be imbalanced")
		}
	})

	t.Run("balanced portfolio", func(t *testing.T) {
		positions := []domain.EnrichedPosition{
			at(1, domain.Long, 1990),
			at(2, domain.Short, 2020),
		}
		h := c.Classify(positions, 2000)
		if h.IsImbalanced {
			t.Errorf("50/50 split should not be imbalanced")
		}
	})
}

func TestClassifyEmptyPortfolio(t *testing.T) {
	c := mustClassifier(t)
	h := c.Classify(nil, 2000)
	if h.Mode != domain.ModeNormal || h.TotalCount != 0 {
		t.Errorf("empty portfolio should be NORMAL with zero count, got %s/%d", h.Mode, h.TotalCount)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"balance threshold out of range", Config{BalanceThreshold: 0, SurvivalThreshold: 0.7, ImbalanceThreshold: 0.7}},
		{"survival below balance", Config{BalanceThreshold: 0.5, SurvivalThreshold: 0.4, ImbalanceThreshold: 0.7}},
		{"imbalance threshold too low", Config{BalanceThreshold: 0.4, SurvivalThreshold: 0.7, ImbalanceThreshold: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
