package engine

import (
	"math"

	"github.com/google/btree"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

// bookEntry is a resting order's position in the priority index.
type bookEntry struct {
	PriorityMicros int64 // effective sort price; market orders outrank every limit
	CreatedUnixM   quant.TimeStamp
	OrderID        string
	Order          *domain.Order
}

// buyLess orders the buy side: price descending, then creation time
// ascending, then order id ascending. Min() is the highest-priority buy.
func buyLess(a, b bookEntry) bool {
	if a.PriorityMicros != b.PriorityMicros {
		return a.PriorityMicros > b.PriorityMicros
	}
	if a.CreatedUnixM != b.CreatedUnixM {
		return a.CreatedUnixM < b.CreatedUnixM
	}
	return a.OrderID < b.OrderID
}

// sellLess orders the sell side: price ascending, then creation time
// ascending, then order id ascending. Min() is the highest-priority sell.
func sellLess(a, b bookEntry) bool {
	if a.PriorityMicros != b.PriorityMicros {
		return a.PriorityMicros < b.PriorityMicros
	}
	if a.CreatedUnixM != b.CreatedUnixM {
		return a.CreatedUnixM < b.CreatedUnixM
	}
	return a.OrderID < b.OrderID
}

// priorityPrice maps an order to its sort key. A market order carries no
// limit, so it sorts ahead of any limit order on its side.
func priorityPrice(o *domain.Order) int64 {
	if o.Type == domain.OrderTypeMarket {
		if o.Side == domain.SideBuy {
			return math.MaxInt64
		}
		return 0
	}
	return int64(o.PriceMicros)
}

// OrderBook holds the resting simulated orders for one instrument in
// price-time priority. Pure storage plus ordering; no matching logic.
// Owned by the sequencer goroutine, so it carries no lock of its own.
type OrderBook struct {
	symbol string
	buys   *btree.BTreeG[bookEntry]
	sells  *btree.BTreeG[bookEntry]
	index  map[string]bookEntry // order id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		buys:   btree.NewG[bookEntry](degree, buyLess),
		sells:  btree.NewG[bookEntry](degree, sellLess),
		index:  make(map[string]bookEntry),
	}
}

// Insert rests an open order on its side of the book.
func (ob *OrderBook) Insert(o *domain.Order) {
	entry := bookEntry{
		PriorityMicros: priorityPrice(o),
		CreatedUnixM:   o.CreatedUnixM,
		OrderID:        o.ID,
		Order:          o,
	}
	if o.Side == domain.SideBuy {
		ob.buys.ReplaceOrInsert(entry)
	} else {
		ob.sells.ReplaceOrInsert(entry)
	}
	ob.index[o.ID] = entry
}

// Remove deletes an order from the book by id. Returns false when the
// order is not resting here.
func (ob *OrderBook) Remove(orderID string) bool {
	entry, ok := ob.index[orderID]
	if !ok {
		return false
	}
	delete(ob.index, orderID)
	if entry.Order.Side == domain.SideBuy {
		ob.buys.Delete(entry)
	} else {
		ob.sells.Delete(entry)
	}
	return true
}

// Contains reports whether an order currently rests on the book.
func (ob *OrderBook) Contains(orderID string) bool {
	_, ok := ob.index[orderID]
	return ok
}

// AscendBuys walks the buy side in priority order (best first).
// The callback returns true to continue.
func (ob *OrderBook) AscendBuys(fn func(bookEntry) bool) {
	ob.buys.Ascend(fn)
}

// AscendSells walks the sell side in priority order (best first).
func (ob *OrderBook) AscendSells(fn func(bookEntry) bool) {
	ob.sells.Ascend(fn)
}

// BuyCount returns the number of resting buy orders.
func (ob *OrderBook) BuyCount() int {
	return ob.buys.Len()
}

// SellCount returns the number of resting sell orders.
func (ob *OrderBook) SellCount() int {
	return ob.sells.Len()
}
