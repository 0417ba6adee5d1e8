package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"goldCloserBot/config"
	"goldCloserBot/internal/closing"
	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/health"
	"goldCloserBot/internal/history"
	"goldCloserBot/internal/ports"
	"goldCloserBot/internal/snapshot"
)

// CloserService orchestrates the decision cycle: snapshot the portfolio,
// classify its health, search for a closable combination, run the safety
// gate and execute the approved group.
type CloserService struct {
	cfg        *config.Config
	logger     ports.Logger
	feed       ports.PositionFeed
	execution  ports.ExecutionClient
	repo       ports.ClosureRepository
	builder    *snapshot.Builder
	classifier *health.Classifier
	engine     *closing.Engine
	gate       *closing.Gate
	tracker    *history.Tracker

	// State fields
	mu            sync.Mutex // Protects access to state fields below
	closuresToday int
}

// NewCloserService creates a new application service instance.
func NewCloserService(
	cfg *config.Config,
	logger ports.Logger,
	feed ports.PositionFeed,
	execution ports.ExecutionClient,
	repo ports.ClosureRepository,
	builder *snapshot.Builder,
	classifier *health.Classifier,
	engine *closing.Engine,
	gate *closing.Gate,
	tracker *history.Tracker,
) (*CloserService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || feed == nil || execution == nil || repo == nil ||
		builder == nil || classifier == nil || engine == nil || gate == nil || tracker == nil {
		return nil, fmt.Errorf("missing required dependencies for CloserService")
	}

	// Validate config values needed by service
	if cfg.CycleInterval <= 0 {
		return nil, fmt.Errorf("configuration CycleInterval must be positive")
	}
	if cfg.PullbackFraction <= 0 || cfg.PullbackFraction >= 1 {
		return nil, fmt.Errorf("configuration PullbackFraction must be between 0 and 1")
	}
	if cfg.MaxClosuresPerDay <= 0 {
		return nil, fmt.Errorf("configuration MaxClosuresPerDay must be positive")
	}

	return &CloserService{
		cfg:        cfg,
		logger:     logger,
		feed:       feed,
		execution:  execution,
		repo:       repo,
		builder:    builder,
		classifier: classifier,
		engine:     engine,
		gate:       gate,
		tracker:    tracker,
	}, nil
}

// Start begins the closer's main decision loop.
func (s *CloserService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Closer Service...", map[string]interface{}{
		"symbol": s.cfg.Symbol, "cycleInterval": s.cfg.CycleInterval.String()})

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel() // Cancel the main context
	}()

	// --- Initialization Steps ---
	// 1. Sync today's closure count so a restart does not reset the daily cap
	count, err := s.repo.CountTodayBySymbol(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to count today's closures")
		return fmt.Errorf("failed to count today's closures: %w", err)
	}
	s.closuresToday = count

	// 2. Report lifetime realized P&L for operator visibility
	total, err := s.repo.TotalRealized(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to read total realized P&L")
		return fmt.Errorf("failed to read total realized P&L: %w", err)
	}
	s.logger.Info(ctx, "Initial state synchronized", map[string]interface{}{
		"closuresToday": s.closuresToday, "totalRealizedPnL": total})

	// --- Main Loop ---
	ticker := time.NewTicker(s.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Closer Service stopped.")
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle executes one decision cycle. Any failure aborts the cycle without
// side effects; the next tick re-evaluates from fresh data.
func (s *CloserService) runCycle(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycleID := uuid.NewString()
	fields := func(extra map[string]interface{}) map[string]interface{} {
		out := map[string]interface{}{"cycleID": cycleID, "symbol": s.cfg.Symbol}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	quote, err := s.feed.Quote(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Cycle aborted: failed to fetch quote", fields(nil))
		return
	}
	price := quote.Mid()
	s.tracker.ObservePrice(price)

	raw, err := s.feed.OpenPositions(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Cycle aborted: failed to fetch open positions", fields(nil))
		return
	}

	positions, dropped := s.builder.Build(ctx, raw, quote, time.Now().UTC())
	if dropped > 0 {
		s.logger.Warn(ctx, "Dropped malformed position records", fields(map[string]interface{}{"dropped": dropped}))
	}
	if len(positions) == 0 {
		s.logger.Debug(ctx, "No open positions", fields(nil))
		return
	}

	portfolioHealth := s.classifier.Classify(positions, price)
	s.logger.Debug(ctx, "Portfolio classified", fields(map[string]interface{}{
		"mode":              string(portfolioHealth.Mode),
		"wrongSideFraction": portfolioHealth.WrongSideFraction,
		"isImbalanced":      portfolioHealth.IsImbalanced,
		"positions":         portfolioHealth.TotalCount,
	}))

	if s.closuresToday >= s.cfg.MaxClosuresPerDay {
		s.logger.Debug(ctx, "Daily closure cap reached, skipping cycle", fields(map[string]interface{}{
			"closuresToday": s.closuresToday, "cap": s.cfg.MaxClosuresPerDay}))
		return
	}

	// A sharp retreat from the rolling price peak escalates to the tiered
	// cleanup variant; otherwise the mode-driven analysis runs.
	var decision domain.ClosureDecision
	pullback := s.tracker.Pullback(price)
	if pullback >= s.cfg.PullbackFraction {
		s.logger.Info(ctx, "Price pullback detected, running tiered cleanup", fields(map[string]interface{}{
			"pullback": pullback, "threshold": s.cfg.PullbackFraction}))
		decision = s.engine.AnalyzeCleanup(ctx, positions, portfolioHealth)
	} else {
		decision = s.engine.Analyze(ctx, positions, portfolioHealth)
	}

	if !decision.ShouldClose {
		s.logger.Debug(ctx, "No closure this cycle", fields(map[string]interface{}{
			"reason": decision.Reason, "kind": string(decision.Kind)}))
		return
	}
	candidate := decision.Candidate
	s.logger.Info(ctx, "Closure candidate selected", fields(map[string]interface{}{
		"tickets": candidate.Tickets(), "expectedPnL": candidate.TotalPnL,
		"score": candidate.Score, "reason": decision.Reason}))

	// --- Safety Gate ---
	// Re-fetch the portfolio so the gate sees authoritative figures, not the
	// snapshot the candidate was scored on.
	profits, err := s.authoritativeProfits(ctx, candidate)
	if err != nil {
		s.logger.Warn(ctx, "Closure vetoed before execution", fields(map[string]interface{}{"error": err.Error()}))
		return
	}
	if err := s.gate.Approve(ctx, candidate, profits); err != nil {
		s.logger.Warn(ctx, "Closure vetoed by safety gate", fields(map[string]interface{}{"error": err.Error()}))
		return
	}

	// --- Execution ---
	// Closes are at-most-once per cycle: a failed ticket is logged and the
	// remaining tickets still close to retire as much exposure as possible.
	var realized float64
	failures := 0
	for _, ticket := range candidate.Tickets() {
		result, err := s.execution.CloseTicket(ctx, s.cfg.Symbol, ticket)
		if err != nil {
			failures++
			s.logger.Error(ctx, err, "Failed to close ticket", fields(map[string]interface{}{"ticket": ticket}))
			continue
		}
		realized += result.RealizedPnL
	}

	rec := &domain.ClosureRecord{
		Symbol:        s.cfg.Symbol,
		ClosedAt:      time.Now().UTC(),
		Label:         closureLabel(candidate),
		Tickets:       candidate.Tickets(),
		PositionCount: candidate.PositionCount,
		TotalVolume:   candidate.TotalVolume,
		ExpectedPnL:   candidate.TotalPnL,
		RealizedPnL:   realized,
		Success:       failures == 0,
	}
	if _, err := s.repo.RecordClosure(ctx, rec); err != nil {
		// The closure already happened; losing the record is bad but must not
		// stop the loop.
		s.logger.Error(ctx, err, "Failed to record closure", fields(nil))
	}
	s.tracker.Append(rec)
	s.tracker.ResetPeak(price)
	s.closuresToday++

	s.logger.Info(ctx, "Closure executed", fields(map[string]interface{}{
		"label": rec.Label, "positions": rec.PositionCount, "failures": failures,
		"expectedPnL": rec.ExpectedPnL, "realizedPnL": rec.RealizedPnL,
		"closuresToday": s.closuresToday,
	}))
}

// authoritativeProfits re-fetches the portfolio and extracts the venue's own
// profit figure for each candidate ticket. Estimated figures are not good
// enough here: a ticket without an authoritative P&L blocks execution.
func (s *CloserService) authoritativeProfits(ctx context.Context, c *domain.CombinationCandidate) (map[int64]float64, error) {
	raw, err := s.feed.OpenPositions(ctx, s.cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch positions for final check: %w", err)
	}

	byTicket := make(map[int64]ports.OpenPosition, len(raw))
	for _, p := range raw {
		byTicket[p.Ticket] = p
	}

	profits := make(map[int64]float64, c.PositionCount)
	for _, pos := range c.Positions {
		fresh, ok := byTicket[pos.Ticket]
		if !ok {
			// Leave it out of the map; the gate reports the vanished ticket.
			continue
		}
		if fresh.Profit == nil {
			return nil, fmt.Errorf("ticket %d: %w", pos.Ticket, ports.ErrNoAuthoritativePnL)
		}
		profits[pos.Ticket] = *fresh.Profit
	}
	return profits, nil
}

// closureLabel tags a record with the tier when the tiered cleanup chose it,
// otherwise with the portfolio mode.
func closureLabel(c *domain.CombinationCandidate) string {
	if c.Tier != "" {
		return string(c.Tier)
	}
	return string(c.Mode)
}
