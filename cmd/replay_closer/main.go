package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"goldCloserBot/config"
	"goldCloserBot/internal/adapters/logger"
	"goldCloserBot/internal/closing"
	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/health"
	"goldCloserBot/internal/ports"
	"goldCloserBot/internal/snapshot"
	"goldCloserBot/internal/utils"
)

// replay_closer runs one decision cycle of the combination engine against a
// portfolio read from CSV, without touching any venue. Useful for replaying
// a production snapshot to see what the engine would do.
func main() {
	positionsPath := flag.String("positions", "", "CSV file with open positions (required)")
	bid := flag.Float64("bid", 0, "current bid price (required)")
	ask := flag.Float64("ask", 0, "current ask price (required)")
	policyPath := flag.String("policy", "./config/policy.yaml", "engine policy YAML")
	multiplier := flag.Float64("multiplier", 100.0, "contract multiplier")
	commission := flag.Float64("commission", 0.07, "commission per lot")
	cleanup := flag.Bool("cleanup", false, "run the tiered cleanup variant instead of mode analysis")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *positionsPath == "" || *bid <= 0 || *ask <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := logger.ParseLevel("warn")
	if *verbose {
		level = logger.ParseLevel("debug")
	}
	appLogger := logger.New(logger.Config{Level: level, Pretty: true})
	ctx := context.Background()

	policy, err := config.LoadPolicy(*policyPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load policy: %v", err)
	}
	engineCfg, err := policy.EngineConfig()
	if err != nil {
		log.Fatalf("FATAL: Invalid policy: %v", err)
	}

	builder, err := snapshot.NewBuilder(snapshot.Config{
		ContractMultiplier: *multiplier,
		CommissionPerLot:   *commission,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to create snapshot builder: %v", err)
	}
	classifier, err := health.New(policy.HealthConfig())
	if err != nil {
		log.Fatalf("FATAL: Failed to create classifier: %v", err)
	}
	engine, err := closing.New(engineCfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to create engine: %v", err)
	}

	raw, err := utils.ReadPositionsFromCSV(*positionsPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to read positions: %v", err)
	}

	quote := ports.Quote{Bid: *bid, Ask: *ask, Time: time.Now()}
	positions, dropped := builder.Build(ctx, raw, quote, time.Now().UTC())
	if dropped > 0 {
		fmt.Printf("dropped %d malformed position record(s)\n", dropped)
	}
	if len(positions) == 0 {
		fmt.Println("no usable positions")
		return
	}

	portfolioHealth := classifier.Classify(positions, quote.Mid())
	fmt.Printf("Portfolio: %d positions (%d long / %d short)\n",
		portfolioHealth.TotalCount, portfolioHealth.LongCount, portfolioHealth.ShortCount)
	fmt.Printf("Mode: %s (wrong-side fraction %.2f)\n", portfolioHealth.Mode, portfolioHealth.WrongSideFraction)
	if portfolioHealth.IsImbalanced {
		fmt.Printf("Imbalanced toward %s\n", portfolioHealth.ImbalanceSide)
	}

	var decision domain.ClosureDecision
	if *cleanup {
		decision = engine.AnalyzeCleanup(ctx, positions, portfolioHealth)
	} else {
		decision = engine.Analyze(ctx, positions, portfolioHealth)
	}

	fmt.Println()
	if !decision.ShouldClose {
		fmt.Printf("Decision: no closure (%s: %s)\n", decision.Kind, decision.Reason)
		return
	}

	c := decision.Candidate
	fmt.Printf("Decision: CLOSE %d position(s) - %s\n", c.PositionCount, decision.Reason)
	fmt.Printf("  score %.2f, total volume %.2f lots, expected P&L %.2f\n", c.Score, c.TotalVolume, c.TotalPnL)
	for _, p := range c.Positions {
		fmt.Printf("  ticket %d  %-5s %.2f lots @ %.2f  pnl %.2f\n",
			p.Ticket, p.Direction, p.Volume, p.OpenPrice, p.CurrentPnL)
	}
}
