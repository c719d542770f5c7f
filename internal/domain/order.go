package domain

import "paper_go/pkg/quant"

// Side indicates whether an order buys or sells the instrument.
type Side string

// OrderType distinguishes limit orders from market orders.
type OrderType string

// OrderStatus represents the lifecycle state of an order.
// Transitions only move forward; FILLED, CANCELLED and REJECTED are terminal.
type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"

	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"

	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// Sign returns +1 for a buy and -1 for a sell.
func (s Side) Sign() int64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

// Order represents a simulated order resting against the paper account.
// All monetary values are strictly int64 fixed-point.
type Order struct {
	ID           string            `json:"id"`
	Symbol       string            `json:"symbol"`
	Side         Side              `json:"side"`
	Type         OrderType         `json:"type"`
	PriceMicros  quant.PriceMicros `json:"price"` // 0 for market orders
	QtySats      quant.QtySats     `json:"qty"`
	FilledSats   quant.QtySats     `json:"filled"`
	Status       OrderStatus       `json:"status"`
	CreatedUnixM quant.TimeStamp   `json:"created"`
}

// RemainingSats returns the unfilled quantity.
func (o *Order) RemainingSats() quant.QtySats {
	return o.QtySats - o.FilledSats
}

// IsOpen checks if the order is still working (can fill or be cancelled).
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPartiallyFilled
}

// IsTerminal checks if the order reached a final state.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusCancelled || o.Status == OrderStatusRejected
}

// ApplyFill records qty as executed and advances the status.
// Panics if the fill would exceed the requested quantity; a book that
// produces such a fill is corrupt and must not keep running.
func (o *Order) ApplyFill(qty quant.QtySats) {
	if qty <= 0 {
		panic("ORDER_FILL_NON_POSITIVE")
	}
	o.FilledSats += qty
	o.VerifyInvariant()
	if o.FilledSats == o.QtySats {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
}

// VerifyInvariant checks the order's internal consistency.
func (o *Order) VerifyInvariant() {
	if o.FilledSats < 0 || o.FilledSats > o.QtySats {
		panic("ORDER_INVARIANT_FILLED_OUT_OF_RANGE: " + o.ID)
	}
	if o.Status == OrderStatusFilled && o.FilledSats != o.QtySats {
		panic("ORDER_INVARIANT_STATUS_FILLED_MISMATCH: " + o.ID)
	}
}

// OrderRequest is the submission payload from the order-entry boundary.
type OrderRequest struct {
	Symbol      string
	Side        Side
	Type        OrderType
	PriceMicros quant.PriceMicros // ignored for market orders
	QtySats     quant.QtySats
}
