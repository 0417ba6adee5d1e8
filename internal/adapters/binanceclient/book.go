package binanceclient

import (
	"sort"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

// ticketEntry is one sub-position in the per-ticket book. Binance futures
// nets fills into a single position per side, so the adapter keeps its own
// fill-level ledger: every opening fill becomes a ticket, every closing fill
// retires volume oldest-first on its side.
type ticketEntry struct {
	ID        int64 // venue trade ID of the opening fill
	Side      futures.PositionSideType
	Volume    float64
	OpenPrice float64
	OpenedAt  time.Time
}

// ticketBook holds the open tickets for one symbol. Not safe for concurrent
// use; the owning client serializes access.
type ticketBook struct {
	tickets     map[int64]*ticketEntry
	lastTradeID int64
	// order IDs whose closes were placed by this process; their fills are
	// already reflected in the book and must not be replayed.
	ownOrders map[int64]struct{}
}

func newTicketBook() *ticketBook {
	return &ticketBook{
		tickets:   make(map[int64]*ticketEntry),
		ownOrders: make(map[int64]struct{}),
	}
}

// isOpeningFill reports whether a hedge-mode fill increases exposure.
func isOpeningFill(side futures.SideType, posSide futures.PositionSideType) bool {
	return (side == futures.SideTypeBuy && posSide == futures.PositionSideTypeLong) ||
		(side == futures.SideTypeSell && posSide == futures.PositionSideTypeShort)
}

// apply folds one account trade into the book.
func (b *ticketBook) apply(t *futures.AccountTrade, qty, price float64) {
	if t.ID > b.lastTradeID {
		b.lastTradeID = t.ID
	}
	if _, ours := b.ownOrders[t.OrderID]; ours {
		// Ticket already removed when the close was placed.
		return
	}

	if isOpeningFill(t.Side, t.PositionSide) {
		b.tickets[t.ID] = &ticketEntry{
			ID:        t.ID,
			Side:      t.PositionSide,
			Volume:    qty,
			OpenPrice: price,
			OpenedAt:  time.UnixMilli(t.Time),
		}
		return
	}
	b.reduce(t.PositionSide, qty)
}

// reduce retires volume on one side, oldest ticket first.
func (b *ticketBook) reduce(side futures.PositionSideType, qty float64) {
	const eps = 1e-9
	for qty > eps {
		oldest := b.oldest(side)
		if oldest == nil {
			return // closing fill without a matching ticket; book resyncs via position check
		}
		if oldest.Volume > qty+eps {
			oldest.Volume -= qty
			return
		}
		qty -= oldest.Volume
		delete(b.tickets, oldest.ID)
	}
}

func (b *ticketBook) oldest(side futures.PositionSideType) *ticketEntry {
	var best *ticketEntry
	for _, t := range b.tickets {
		if t.Side != side {
			continue
		}
		if best == nil || t.OpenedAt.Before(best.OpenedAt) || (t.OpenedAt.Equal(best.OpenedAt) && t.ID < best.ID) {
			best = t
		}
	}
	return best
}

// remove drops a ticket and marks the closing order as our own so the fill
// is not replayed on the next trade sync.
func (b *ticketBook) remove(ticketID, closeOrderID int64) {
	delete(b.tickets, ticketID)
	b.ownOrders[closeOrderID] = struct{}{}
}

// sideVolume sums open volume for one side.
func (b *ticketBook) sideVolume(side futures.PositionSideType) float64 {
	var total float64
	for _, t := range b.tickets {
		if t.Side == side {
			total += t.Volume
		}
	}
	return total
}

// snapshot returns all tickets ordered by open time then ID.
func (b *ticketBook) snapshot() []*ticketEntry {
	out := make([]*ticketEntry, 0, len(b.tickets))
	for _, t := range b.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.Before(out[j].OpenedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
