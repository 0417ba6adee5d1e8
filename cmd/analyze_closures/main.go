package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"goldCloserBot/internal/adapters/logger"
	"goldCloserBot/internal/adapters/sqlite"
	"goldCloserBot/internal/analytics"
)

// analyze_closures prints performance metrics over the recorded group
// closures in the bot's database.
func main() {
	dbPath := flag.String("db", "./data/closer_bot.db", "path to the bot database")
	symbol := flag.String("symbol", "PAXGUSDT", "instrument symbol")
	limit := flag.Int("limit", 500, "max closures to analyze, newest first")
	flag.Parse()

	ctx := context.Background()
	appLogger := logger.New(logger.Config{Level: logger.ParseLevel("warn"), Pretty: true})

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: *dbPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open database: %v", err)
	}
	defer repo.Close()

	records, err := repo.RecentClosures(ctx, *symbol, *limit)
	if err != nil {
		log.Fatalf("FATAL: Failed to load closures: %v", err)
	}
	if len(records) == 0 {
		fmt.Printf("No closures recorded for %s\n", *symbol)
		return
	}

	m := analytics.Analyze(records)

	fmt.Printf("Closure performance for %s (%s - %s)\n", *symbol,
		m.FirstAt.Format("2006-01-02 15:04"), m.LastAt.Format("2006-01-02 15:04"))
	fmt.Printf("  closures:          %d (%d ok, %d failed, %.1f%% success)\n",
		m.TotalClosures, m.Successful, m.Failed, m.SuccessRate*100)
	fmt.Printf("  positions retired: %d (%.2f lots)\n", m.PositionsRetired, m.TotalVolume)
	fmt.Printf("  expected P&L:      %.2f\n", m.TotalExpectedPnL)
	fmt.Printf("  realized P&L:      %.2f\n", m.TotalRealizedPnL)
	fmt.Printf("  avg slippage:      %.2f per closure\n", m.AvgSlippage)

	labels := make([]string, 0, len(m.ByLabel))
	for label := range m.ByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Println("\nBy label:")
	for _, label := range labels {
		lm := m.ByLabel[label]
		fmt.Printf("  %-10s %3d closures, %3d positions, realized %.2f\n",
			label, lm.Closures, lm.PositionsRetired, lm.RealizedPnL)
	}

	total, err := repo.TotalRealized(ctx, *symbol)
	if err != nil {
		log.Fatalf("FATAL: Failed to sum realized P&L: %v", err)
	}
	fmt.Printf("\nLifetime realized P&L (successful closures): %.2f\n", total)
}
