package ports

import (
	"context"

	"goldCloserBot/internal/domain"
)

// ClosureRepository stores and retrieves realized group-closure records.
type ClosureRepository interface {
	// RecordClosure saves a new closure record and returns its assigned ID.
	RecordClosure(ctx context.Context, rec *domain.ClosureRecord) (int64, error)
	// RecentClosures retrieves the most recent closures for a symbol, up to a limit.
	RecentClosures(ctx context.Context, symbol string, limit int) ([]*domain.ClosureRecord, error)
	// TotalRealized sums realized P&L over all successful closures for a symbol.
	TotalRealized(ctx context.Context, symbol string) (float64, error)
	// CountTodayBySymbol counts closures executed today for a symbol.
	CountTodayBySymbol(ctx context.Context, symbol string) (int, error)
}
