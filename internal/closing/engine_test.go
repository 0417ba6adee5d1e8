package closing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldCloserBot/internal/domain"
)

// Mock implementations
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg, &mockLogger{})
	require.NoError(t, err)
	return e
}

func normalHealth(positions []domain.EnrichedPosition) domain.PortfolioHealth {
	h := domain.PortfolioHealth{Mode: domain.ModeNormal, TotalCount: len(positions)}
	for _, p := range positions {
		if p.Direction == domain.Long {
			h.LongCount++
		} else {
			h.ShortCount++
		}
	}
	return h
}

func TestNew(t *testing.T) {
	t.Run("rejects nil logger", func(t *testing.T) {
		_, err := New(DefaultConfig(), nil)
		assert.Error(t, err)
	})
	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnumerationBudget = 0
		_, err := New(cfg, &mockLogger{})
		assert.Error(t, err)
	})
	t.Run("rejects missing floor", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Floor = nil
		_, err := New(cfg, &mockLogger{})
		assert.Error(t, err)
	})
}

func TestAnalyzeClosesWinnerLoserPair(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	positions := []domain.EnrichedPosition{
		enriched(1, domain.Long, 0.10, 8.0),  // opened @2000, market 1995
		enriched(2, domain.Short, 0.10, -3.0),
	}

	dec := e.Analyze(context.Background(), positions, normalHealth(positions))

	require.True(t, dec.ShouldClose)
	assert.Equal(t, domain.ReasonClose, dec.Kind)
	require.NotNil(t, dec.Candidate)
	assert.ElementsMatch(t, []int64{1, 2}, dec.Candidate.Tickets())
	assert.InDelta(t, 5.0, dec.Candidate.TotalPnL, 1e-9)
	assert.Contains(t, dec.Reason, "2-position")
	assert.Equal(t, domain.ModeNormal, dec.Candidate.Mode)
}

func TestAnalyzeRejectsSoloProfitable(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	positions := []domain.EnrichedPosition{enriched(1, domain.Long, 0.10, 8.0)}

	dec := e.Analyze(context.Background(), positions, normalHealth(positions))

	assert.False(t, dec.ShouldClose)
	assert.Nil(t, dec.Candidate)
	assert.Equal(t, domain.ReasonNoCombination, dec.Kind)
}

func TestAnalyzeEmptyPortfolio(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	dec := e.Analyze(context.Background(), nil, domain.PortfolioHealth{Mode: domain.ModeNormal})

	assert.False(t, dec.ShouldClose)
	assert.Equal(t, domain.ReasonNoPositions, dec.Kind)
}

func TestAnalyzeProfitOnlyPolicy(t *testing.T) {
	positions := []domain.EnrichedPosition{
		enriched(1, domain.Long, 0.10, 5.0),
		enriched(2, domain.Long, 0.10, 3.0),
	}

	t.Run("strict engine refuses all-profitable portfolio", func(t *testing.T) {
		e := newTestEngine(t, DefaultConfig())
		dec := e.Analyze(context.Background(), positions, normalHealth(positions))
		assert.False(t, dec.ShouldClose)
		assert.Equal(t, domain.ReasonNoCombination, dec.Kind)
	})

	t.Run("relaxed engine closes the pair when no losers exist", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowProfitOnlyWhenNoLosses = true
		e := newTestEngine(t, cfg)
		dec := e.Analyze(context.Background(), positions, normalHealth(positions))
		require.True(t, dec.ShouldClose)
		assert.ElementsMatch(t, []int64{1, 2}, dec.Candidate.Tickets())
		assert.InDelta(t, 8.0, dec.Candidate.TotalPnL, 1e-9)
	})
}

func TestAnalyzeSurvivalTakesFirstValid(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	// The globally best pair (9,10) sits at the end; SURVIVAL must settle
	// for the first valid pair instead of searching for it.
	positions := []domain.EnrichedPosition{
		enriched(1, domain.Long, 0.01, 1.0),
		enriched(2, domain.Long, 0.01, -0.5),
		enriched(3, domain.Long, 0.01, -2.0),
		enriched(4, domain.Long, 0.01, -2.0),
		enriched(5, domain.Long, 0.01, -2.0),
		enriched(6, domain.Long, 0.01, -2.0),
		enriched(7, domain.Short, 0.01, -2.0),
		enriched(8, domain.Short, 0.01, -2.0),
		enriched(9, domain.Long, 0.01, 50.0),
		enriched(10, domain.Short, 0.01, -10.0),
	}
	h := normalHealth(positions)
	h.Mode = domain.ModeSurvival

	dec := e.Analyze(context.Background(), positions, h)

	require.True(t, dec.ShouldClose)
	assert.ElementsMatch(t, []int64{1, 2}, dec.Candidate.Tickets())
	assert.Equal(t, domain.ModeSurvival, dec.Candidate.Mode)
}

func TestAnalyzeBalancePrefersMajoritySide(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	// 9 longs vs 1 short. Two equally profitable pairs exist: winner+losing
	// long and winner+losing short. The balance bonus must pick the pair
	// that sheds majority-side exposure.
	positions := []domain.EnrichedPosition{
		enriched(1, domain.Long, 0.10, 10.0),
		enriched(2, domain.Long, 0.10, -2.0),
		enriched(3, domain.Short, 0.10, -2.0),
	}
	for ticket := int64(4); ticket <= 10; ticket++ {
		positions = append(positions, enriched(ticket, domain.Long, 0.10, -100.0))
	}
	h := normalHealth(positions)
	h.Mode = domain.ModeBalance
	h.IsImbalanced = true
	h.ImbalanceSide = domain.Long

	dec := e.Analyze(context.Background(), positions, h)

	require.True(t, dec.ShouldClose)
	assert.ElementsMatch(t, []int64{1, 2}, dec.Candidate.Tickets())
	assert.Equal(t, 0, dec.Candidate.CountBySide(domain.Short))
}

func TestAnalyzeBudgetExhaustionReturnsBestSoFar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnumerationBudget = 3
	e := newTestEngine(t, cfg)

	// Only (1,2), (1,3) and (1,4) fit in the budget; the far better pair
	// (5,6) is never inspected.
	positions := []domain.EnrichedPosition{
		enriched(1, domain.Long, 0.10, 5.0),
		enriched(2, domain.Short, 0.10, -1.0),
		enriched(3, domain.Long, 0.10, -100.0),
		enriched(4, domain.Long, 0.10, -100.0),
		enriched(5, domain.Long, 0.10, 50.0),
		enriched(6, domain.Short, 0.10, -1.0),
	}

	dec := e.Analyze(context.Background(), positions, normalHealth(positions))

	require.True(t, dec.ShouldClose)
	assert.ElementsMatch(t, []int64{1, 2}, dec.Candidate.Tickets())
}

func TestAnalyzeRejectionReasonIsStable(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())

	t.Run("floor rejection reported consistently", func(t *testing.T) {
		// The only positive pair totals 0.5, below the 2.0 hybrid floor.
		positions := []domain.EnrichedPosition{
			enriched(1, domain.Long, 0.10, 1.0),
			enriched(2, domain.Short, 0.10, -0.5),
		}
		h := normalHealth(positions)

		first := e.Analyze(context.Background(), positions, h)
		second := e.Analyze(context.Background(), positions, h)

		assert.False(t, first.ShouldClose)
		assert.Equal(t, domain.ReasonBelowFloor, first.Kind)
		assert.Equal(t, first.Kind, second.Kind)
		assert.Equal(t, first.Reason, second.Reason)
	})

	t.Run("no-combination reported consistently", func(t *testing.T) {
		positions := []domain.EnrichedPosition{
			enriched(1, domain.Long, 0.10, -4.0),
			enriched(2, domain.Short, 0.10, -2.0),
		}
		h := normalHealth(positions)

		first := e.Analyze(context.Background(), positions, h)
		second := e.Analyze(context.Background(), positions, h)

		assert.Equal(t, domain.ReasonNoCombination, first.Kind)
		assert.Equal(t, first.Kind, second.Kind)
	})
}

func TestAnalyzeRecoversFromInternalPanic(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	e.cfg.Floor = nil // forces a nil interface call inside the search

	positions := []domain.EnrichedPosition{
		enriched(1, domain.Long, 0.10, 8.0),
		enriched(2, domain.Short, 0.10, -3.0),
	}

	dec := e.Analyze(context.Background(), positions, normalHealth(positions))

	assert.False(t, dec.ShouldClose)
	assert.Equal(t, domain.ReasonInternalError, dec.Kind)
}

func TestSortCandidatesTieBreaks(t *testing.T) {
	cands := []domain.CombinationCandidate{
		{Score: 10, PositionCount: 2, TotalVolume: 0.3, Positions: []domain.EnrichedPosition{enriched(7, domain.Long, 0.3, 1)}},
		{Score: 10, PositionCount: 3, TotalVolume: 0.5, Positions: []domain.EnrichedPosition{enriched(8, domain.Long, 0.5, 1)}},
		{Score: 10, PositionCount: 2, TotalVolume: 0.2, Positions: []domain.EnrichedPosition{enriched(9, domain.Long, 0.2, 1)}},
		{Score: 12, PositionCount: 2, TotalVolume: 0.9, Positions: []domain.EnrichedPosition{enriched(3, domain.Long, 0.9, 1)}},
	}

	sortCandidates(cands)

	// Highest score first, then more positions, then smaller volume.
	assert.InDelta(t, 12.0, cands[0].Score, 1e-9)
	assert.Equal(t, 3, cands[1].PositionCount)
	assert.InDelta(t, 0.2, cands[2].TotalVolume, 1e-9)
	assert.InDelta(t, 0.3, cands[3].TotalVolume, 1e-9)
}

func TestForEachCombinationLexicographic(t *testing.T) {
	var seen [][]int
	forEachCombination(4, 2, func(idx []int) bool {
		cp := make([]int, len(idx))
		copy(cp, idx)
		seen = append(seen, cp)
		return true
	})

	want := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	assert.Equal(t, want, seen)
}

func TestForEachCombinationStopsEarly(t *testing.T) {
	calls := 0
	forEachCombination(5, 2, func(idx []int) bool {
		calls++
		return calls < 3
	})
	assert.Equal(t, 3, calls)
}
