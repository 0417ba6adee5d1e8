package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"goldCloserBot/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// Trades fetched on the first book sync (the venue returns newest-first
	// within the limit window).
	initialTradeFetchLimit = 1000
)

// Client implements the ports.PositionFeed and ports.ExecutionClient
// interfaces using the go-binance library. It maintains a per-ticket book on
// top of the venue's netted hedge-mode positions so each opening fill can be
// closed individually.
type Client struct {
	futuresClient        *futures.Client
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
	contractMultiplier   float64
	commissionPerLot     float64

	mu   sync.Mutex
	book *ticketBook
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey               string
	SecretKey            string
	UseTestnet           bool
	Logger               ports.Logger
	ReconnectDelay       time.Duration // Reconnect delay (e.g., 1 * time.Second)
	MaxReconnectAttempts int           // Max attempts before giving up
	ContractMultiplier   float64       // account-currency value per pricing unit per 1.0 lot
	CommissionPerLot     float64
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}
	if cfg.ContractMultiplier <= 0 {
		return nil, fmt.Errorf("contract multiplier must be positive")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	// Default reconnect settings if not provided
	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Client{
		futuresClient:        client,
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
		contractMultiplier:   cfg.ContractMultiplier,
		commissionPerLot:     cfg.CommissionPerLot,
		book:                 newTicketBook(),
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to custom errors
		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2013: // Order does not exist
			mappedErr = ports.ErrNotFound
		case -2014: // API-key format invalid
			mappedErr = ports.ErrInvalidAPIKeys
		case -2015: // Invalid API-key, IP, or permissions for action
			mappedErr = ports.ErrInvalidAPIKeys
		case -2019: // Margin is insufficient
			mappedErr = ports.ErrInsufficientFunds
		case -2022: // ReduceOnly Order is rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -3005: // Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		case -3041: // Position is not sufficient
			mappedErr = ports.ErrInsufficientFunds
		case -4003: // Qty not within permissible range
			mappedErr = ports.ErrInvalidRequest
		case -4044: // Position not found
			mappedErr = ports.ErrPositionNotFound
		default:
			// General classification for unmapped API errors
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	err := c.futuresClient.NewPingService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// SetServerTime synchronizes the client's time with the server's time.
func (c *Client) SetServerTime(ctx context.Context) error {
	op := "SetServerTime"
	_, err := c.futuresClient.NewSetServerTimeService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// EnsureHedgeMode switches the account to dual-side (hedge) position mode,
// which the per-ticket book requires so long and short exposure never net
// against each other at the venue.
func (c *Client) EnsureHedgeMode(ctx context.Context) error {
	op := "EnsureHedgeMode"
	err := c.futuresClient.NewChangePositionModeService().DualSide(true).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == -4059 {
			// Already in hedge mode
			c.logger.Debug(ctx, op+": account already in hedge mode")
			return nil
		}
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+": hedge mode enabled")
	return nil
}

// Quote returns the current best bid/ask for the symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (ports.Quote, error) {
	op := "Quote"
	tickers, err := c.futuresClient.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return ports.Quote{}, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		err := fmt.Errorf("no book ticker returned for symbol %s", symbol)
		return ports.Quote{}, c.handleError(ctx, err, op)
	}

	bid, err := strconv.ParseFloat(tickers[0].BidPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse bid price '%s': %w", tickers[0].BidPrice, err)
		return ports.Quote{}, c.handleError(ctx, parseErr, op)
	}
	ask, err := strconv.ParseFloat(tickers[0].AskPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse ask price '%s': %w", tickers[0].AskPrice, err)
		return ports.Quote{}, c.handleError(ctx, parseErr, op)
	}
	return ports.Quote{Bid: bid, Ask: ask, Time: time.Now()}, nil
}

// OpenPositions returns the current per-ticket open positions for the symbol.
// The book is synced from account trade fills first; authoritative unrealized
// profit is taken from the venue's per-side position risk and prorated across
// tickets by volume. When the book volume disagrees with the venue position
// the side's profit is left unset and downstream estimation takes over.
func (c *Client) OpenPositions(ctx context.Context, symbol string) ([]ports.OpenPosition, error) {
	op := "OpenPositions"

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.syncBookLocked(ctx, symbol); err != nil {
		return nil, err
	}

	risks, err := c.futuresClient.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	type sideProfit struct {
		total  float64
		volume float64
		ok     bool
	}
	profits := map[futures.PositionSideType]sideProfit{}
	for _, risk := range risks {
		side := futures.PositionSideType(risk.PositionSide)
		if side != futures.PositionSideTypeLong && side != futures.PositionSideTypeShort {
			continue
		}
		amt, err := strconv.ParseFloat(risk.PositionAmt, 64)
		if err != nil {
			continue
		}
		unrealized, err := strconv.ParseFloat(risk.UnRealizedProfit, 64)
		if err != nil {
			continue
		}
		if amt < 0 {
			amt = -amt
		}
		profits[side] = sideProfit{total: unrealized, volume: amt, ok: true}
	}

	const volumeTolerance = 1e-6
	tickets := c.book.snapshot()
	out := make([]ports.OpenPosition, 0, len(tickets))
	for _, t := range tickets {
		pos := ports.OpenPosition{
			Ticket:    t.ID,
			Direction: directionString(t.Side),
			Volume:    t.Volume,
			OpenPrice: t.OpenPrice,
			OpenedAt:  t.OpenedAt,
		}
		sp := profits[t.Side]
		bookVol := c.book.sideVolume(t.Side)
		if sp.ok && bookVol > 0 && sp.volume > 0 && abs(bookVol-sp.volume) <= volumeTolerance*sp.volume+volumeTolerance {
			profit := sp.total * (t.Volume / sp.volume)
			pos.Profit = &profit
		} else if sp.ok {
			c.logger.Warn(ctx, op+": ticket book volume disagrees with venue position, profit left unset",
				map[string]interface{}{"side": string(t.Side), "bookVolume": bookVol, "venueVolume": sp.volume})
		}
		out = append(out, pos)
	}
	return out, nil
}

// CloseTicket closes one open ticket at market and returns the realized
// outcome.
func (c *Client) CloseTicket(ctx context.Context, symbol string, ticket int64) (*ports.CloseResult, error) {
	op := "CloseTicket"

	c.mu.Lock()
	entry, ok := c.book.tickets[ticket]
	if !ok {
		c.mu.Unlock()
		err := fmt.Errorf("ticket %d not in book: %w", ticket, ports.ErrPositionNotFound)
		c.logger.Warn(ctx, op+": ticket not found", map[string]interface{}{"ticket": ticket})
		return nil, err
	}
	side := entry.Side
	volume := entry.Volume
	openPrice := entry.OpenPrice
	c.mu.Unlock()

	orderSide := futures.SideTypeSell
	if side == futures.PositionSideTypeShort {
		orderSide = futures.SideTypeBuy
	}
	quantity := strconv.FormatFloat(volume, 'f', -1, 64)

	order, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(orderSide).
		PositionSide(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	closePrice, err := c.resolveFillPrice(ctx, symbol, order)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	diff := closePrice - openPrice
	if side == futures.PositionSideTypeShort {
		diff = -diff
	}
	realized := diff*volume*c.contractMultiplier - c.commissionPerLot*volume

	c.mu.Lock()
	c.book.remove(ticket, order.OrderID)
	c.mu.Unlock()

	result := &ports.CloseResult{
		Ticket:      ticket,
		RealizedPnL: realized,
		ClosePrice:  closePrice,
		ClosedAt:    time.UnixMilli(order.UpdateTime),
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": symbol, "ticket": ticket, "orderID": order.OrderID,
		"closePrice": closePrice, "realizedPnL": realized})
	return result, nil
}

// resolveFillPrice extracts the average fill price, re-querying the order
// when the create response does not carry one yet.
func (c *Client) resolveFillPrice(ctx context.Context, symbol string, order *futures.CreateOrderResponse) (float64, error) {
	avgPrice, err := strconv.ParseFloat(order.AvgPrice, 64)
	if err == nil && avgPrice > 0 {
		return avgPrice, nil
	}

	fetched, err := c.futuresClient.NewGetOrderService().
		Symbol(symbol).
		OrderID(order.OrderID).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not fetch order %d for fill price: %w", order.OrderID, err)
	}
	avgPrice, err = strconv.ParseFloat(fetched.AvgPrice, 64)
	if err != nil || avgPrice <= 0 {
		return 0, fmt.Errorf("could not resolve fill price for order %d (avgPrice '%s')", order.OrderID, fetched.AvgPrice)
	}
	return avgPrice, nil
}

// syncBookLocked folds new account trade fills into the ticket book. The
// caller must hold c.mu.
func (c *Client) syncBookLocked(ctx context.Context, symbol string) error {
	op := "SyncBook"

	svc := c.futuresClient.NewListAccountTradeService().Symbol(symbol)
	if c.book.lastTradeID > 0 {
		svc = svc.FromID(c.book.lastTradeID + 1)
	} else {
		svc = svc.Limit(initialTradeFetchLimit)
	}

	trades, err := svc.Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}

	applied := 0
	for _, t := range trades {
		qty, err := strconv.ParseFloat(t.Quantity, 64)
		if err != nil {
			c.logger.Warn(ctx, op+": skipping trade with unparsable quantity",
				map[string]interface{}{"tradeID": t.ID, "quantity": t.Quantity})
			continue
		}
		price, err := strconv.ParseFloat(t.Price, 64)
		if err != nil {
			c.logger.Warn(ctx, op+": skipping trade with unparsable price",
				map[string]interface{}{"tradeID": t.ID, "price": t.Price})
			continue
		}
		c.book.apply(t, qty, price)
		applied++
	}
	if applied > 0 {
		c.logger.Debug(ctx, op+": book updated", map[string]interface{}{
			"newFills": applied, "openTickets": len(c.book.tickets)})
	}
	return nil
}

func directionString(side futures.PositionSideType) string {
	if side == futures.PositionSideTypeShort {
		return "SHORT"
	}
	return "LONG"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
