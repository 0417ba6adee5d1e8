package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goldCloserBot/internal/domain"
	"goldCloserBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.ClosureRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/closer_bot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS closures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		closed_at TIMESTAMP NOT NULL,
		label TEXT NOT NULL,
		tickets TEXT NOT NULL,
		position_count INTEGER NOT NULL,
		total_volume REAL NOT NULL,
		expected_pnl REAL NOT NULL,
		realized_pnl REAL NOT NULL,
		success INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_closures_symbol_closed_at ON closures (symbol, closed_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- ClosureRepository Implementation ---

// RecordClosure saves a new closure record and returns its assigned ID.
func (r *Repository) RecordClosure(ctx context.Context, rec *domain.ClosureRecord) (int64, error) {
	const query = `
	INSERT INTO closures (symbol, closed_at, label, tickets, position_count, total_volume, expected_pnl, realized_pnl, success)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.Symbol, rec.ClosedAt, rec.Label, joinTickets(rec.Tickets),
		rec.PositionCount, rec.TotalVolume, rec.ExpectedPnL, rec.RealizedPnL, rec.Success)
	if err != nil {
		return 0, fmt.Errorf("failed to insert closure for symbol %s: %w", rec.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for closure %s: %w", rec.Symbol, err)
	}
	rec.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Closure recorded", map[string]interface{}{
		"closureID": id, "symbol": rec.Symbol, "label": rec.Label, "realizedPnL": rec.RealizedPnL})
	return id, nil
}

// RecentClosures retrieves the most recent closures for a symbol, up to a limit.
func (r *Repository) RecentClosures(ctx context.Context, symbol string, limit int) ([]*domain.ClosureRecord, error) {
	const query = `
	SELECT id, symbol, closed_at, label, tickets, position_count, total_volume, expected_pnl, realized_pnl, success
	FROM closures
	WHERE symbol = ? ORDER BY closed_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closures for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	records := make([]*domain.ClosureRecord, 0)
	for rows.Next() {
		rec, err := scanClosure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan closure during RecentClosures: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closure rows: %w", err)
	}
	return records, nil
}

// TotalRealized sums realized P&L over all successful closures for a symbol.
func (r *Repository) TotalRealized(ctx context.Context, symbol string) (float64, error) {
	const query = `SELECT COALESCE(SUM(realized_pnl), 0) FROM closures WHERE symbol = ? AND success = 1`
	var total float64
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum realized P&L for symbol %s: %w", symbol, err)
	}
	return total, nil
}

// CountTodayBySymbol counts closures executed today for a symbol.
func (r *Repository) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	// Ensure timezone consistency might be needed depending on SQLite build/config
	const query = `SELECT COUNT(*) FROM closures WHERE symbol = ? AND date(closed_at) = date('now', 'localtime')`
	var count int
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count closures today for symbol %s: %w", symbol, err)
	}
	return count, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanClosure scans a row into a domain.ClosureRecord struct.
func scanClosure(s scanner) (*domain.ClosureRecord, error) {
	rec := &domain.ClosureRecord{}
	var tickets string
	err := s.Scan(
		&rec.ID, &rec.Symbol, &rec.ClosedAt, &rec.Label, &tickets,
		&rec.PositionCount, &rec.TotalVolume, &rec.ExpectedPnL, &rec.RealizedPnL, &rec.Success)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	rec.Tickets, err = splitTickets(tickets)
	if err != nil {
		return nil, fmt.Errorf("malformed ticket list '%s': %w", tickets, err)
	}
	return rec, nil
}

// joinTickets serializes a ticket list into a comma-separated string.
func joinTickets(tickets []int64) string {
	parts := make([]string, len(tickets))
	for i, t := range tickets {
		parts[i] = strconv.FormatInt(t, 10)
	}
	return strings.Join(parts, ",")
}

func splitTickets(joined string) ([]int64, error) {
	if joined == "" {
		return nil, nil
	}
	parts := strings.Split(joined, ",")
	tickets := make([]int64, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
