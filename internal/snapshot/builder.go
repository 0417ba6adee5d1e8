package snapshot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/ports"
)

// Config holds the instrument parameters used for the fallback P&L estimate.
type Config struct {
	ContractMultiplier float64 // account-currency value of a 1.0-lot position per pricing unit
	CommissionPerLot   float64 // round-trip commission deducted per lot in the fallback estimate
}

// DefaultConfig returns parameters for a gold-style contract (100 oz per lot).
func DefaultConfig() Config {
	return Config{
		ContractMultiplier: 100.0,
		CommissionPerLot:   0.07,
	}
}

// Builder converts raw open-position records into enriched positions.
//
// It degrades by omission: records that cannot be parsed are dropped and
// logged as data-quality errors, never returned as failures.
type Builder struct {
	cfg    Config
	logger ports.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(cfg Config, logger ports.Logger) (*Builder, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for snapshot builder")
	}
	if cfg.ContractMultiplier <= 0 {
		return nil, fmt.Errorf("contract multiplier must be positive, got %f", cfg.ContractMultiplier)
	}
	if cfg.CommissionPerLot < 0 {
		return nil, fmt.Errorf("commission per lot cannot be negative, got %f", cfg.CommissionPerLot)
	}
	return &Builder{cfg: cfg, logger: logger}, nil
}

// Build enriches the raw records against the given quote. It returns the
// usable positions and the number of records dropped for data-quality
// reasons.
func (b *Builder) Build(ctx context.Context, raw []ports.OpenPosition, quote ports.Quote, now time.Time) ([]domain.EnrichedPosition, int) {
	enriched := make([]domain.EnrichedPosition, 0, len(raw))
	dropped := 0
	price := quote.Mid()

	for _, rec := range raw {
		dir, ok := parseDirection(rec.Direction)
		if !ok || rec.Ticket <= 0 || rec.Volume <= 0 || rec.OpenPrice <= 0 {
			dropped++
			b.logger.Error(ctx, fmt.Errorf("malformed position record"), "Dropping unparseable position",
				map[string]interface{}{
					"ticket":    rec.Ticket,
					"direction": rec.Direction,
					"volume":    rec.Volume,
					"openPrice": rec.OpenPrice,
				})
			continue
		}

		pos := domain.Position{
			Ticket:           rec.Ticket,
			Direction:        dir,
			Volume:           rec.Volume,
			OpenPrice:        rec.OpenPrice,
			UnrealizedProfit: rec.Profit,
			OpenedAt:         rec.OpenedAt,
		}

		// The authoritative venue figure always wins; the estimate exists
		// only for feeds that cannot report per-ticket profit.
		var pnl float64
		if rec.Profit != nil {
			pnl = *rec.Profit
		} else {
			pnl = b.estimatePnL(pos, quote)
		}

		age := 0.0
		if !rec.OpenedAt.IsZero() && now.After(rec.OpenedAt) {
			age = now.Sub(rec.OpenedAt).Minutes()
		}

		enriched = append(enriched, domain.EnrichedPosition{
			Position:           pos,
			CurrentPnL:         pnl,
			DistanceFromMarket: math.Abs(price - rec.OpenPrice),
			AgeMinutes:         age,
			IsProfitable:       pnl > 0,
		})
	}

	if dropped > 0 {
		b.logger.Warn(ctx, "Snapshot degraded by dropped records",
			map[string]interface{}{"dropped": dropped, "kept": len(enriched)})
	}
	return enriched, dropped
}

// estimatePnL computes the conservative fallback: the position is valued at
// the price it could actually be closed at (bid for longs, ask for shorts),
// minus per-lot commission.
func (b *Builder) estimatePnL(pos domain.Position, quote ports.Quote) float64 {
	var diff float64
	if pos.Direction == domain.Long {
		diff = quote.Bid - pos.OpenPrice
	} else {
		diff = pos.OpenPrice - quote.Ask
	}
	return diff*pos.Volume*b.cfg.ContractMultiplier - b.cfg.CommissionPerLot*pos.Volume
}

func parseDirection(s string) (domain.Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY", "0":
		return domain.Long, true
	case "SHORT", "SELL", "1":
		return domain.Short, true
	default:
		return "", false
	}
}
