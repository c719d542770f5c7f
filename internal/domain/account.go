package domain

import (
	"fmt"
	"sort"

	"paper_go/pkg/quant"
	"paper_go/pkg/safe"
)

// Account is the single paper-trading ledger: cash, one net position per
// instrument, and every order ever submitted. It is owned by the sequencer
// goroutine; nothing here is safe for concurrent mutation.
type Account struct {
	CashMicros int64

	instruments *InstrumentTable
	positions   map[string]*Position
	orders      map[string]*Order
}

// NewAccount creates a ledger with the given starting cash.
func NewAccount(initialCashMicros int64, instruments *InstrumentTable) *Account {
	return &Account{
		CashMicros:  initialCashMicros,
		instruments: instruments,
		positions:   make(map[string]*Position),
		orders:      make(map[string]*Order),
	}
}

// ApplyFill applies one fill atomically: cash moves by the full signed
// notional, then the position nets the quantity (close-before-open).
// The update is all-or-nothing; any inconsistency panics before partial
// state can leak.
func (a *Account) ApplyFill(f Fill) {
	inst, ok := a.instruments.Get(f.Symbol)
	if !ok {
		panic("LEDGER_FILL_UNKNOWN_INSTRUMENT: " + f.Symbol)
	}
	if f.QtySats <= 0 || f.PriceMicros <= 0 {
		panic(fmt.Sprintf("LEDGER_FILL_INVALID: %s qty=%d price=%d", f.OrderID, f.QtySats, f.PriceMicros))
	}

	notional := quant.Notional(f.PriceMicros, f.QtySats, inst.Multiplier)
	// Buy pays cash, sell receives. Realized PnL flows back into cash
	// automatically through the opposing notionals of open and close.
	a.CashMicros = safe.SafeSub(a.CashMicros, safe.SafeMul(f.Side.Sign(), notional))

	pos := a.position(f.Symbol)
	pos.ApplyFill(f.Side, f.QtySats, f.PriceMicros, inst.Multiplier)
	pos.MarkToMarket(f.PriceMicros, inst.Multiplier)
}

// MarkToMarket refreshes unrealized PnL for the quoted instrument.
// Returns the updated position copy, or false when none exists yet.
func (a *Account) MarkToMarket(q Quote) (Position, bool) {
	pos, ok := a.positions[q.Symbol]
	if !ok {
		return Position{}, false
	}
	inst, ok := a.instruments.Get(q.Symbol)
	if !ok {
		return Position{}, false
	}
	pos.MarkToMarket(q.MarkPriceMicros(), inst.Multiplier)
	return *pos, true
}

// CanAfford checks cash sufficiency for a buy at the reference price.
// Sells pass: shorting is allowed and margin is out of scope.
func (a *Account) CanAfford(req OrderRequest, ref quant.PriceMicros) bool {
	if req.Side != SideBuy {
		return true
	}
	if ref <= 0 {
		// No reference price yet; accept and let fills settle later.
		return true
	}
	inst, ok := a.instruments.Get(req.Symbol)
	if !ok {
		return false
	}
	return quant.Notional(ref, req.QtySats, inst.Multiplier) <= a.CashMicros
}

// RegisterOrder records an order in the ledger's order map.
func (a *Account) RegisterOrder(o *Order) {
	a.orders[o.ID] = o
}

// Order returns the live order for an id.
func (a *Account) Order(id string) (*Order, bool) {
	o, ok := a.orders[id]
	return o, ok
}

// OpenOrders returns the working orders sorted by creation time then id.
func (a *Account) OpenOrders() []Order {
	out := make([]Order, 0)
	for _, o := range a.orders {
		if o.IsOpen() {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedUnixM != out[j].CreatedUnixM {
			return out[i].CreatedUnixM < out[j].CreatedUnixM
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Position returns a copy of the position for a symbol.
func (a *Account) Position(symbol string) (Position, bool) {
	pos, ok := a.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all positions sorted by symbol.
func (a *Account) Positions() []Position {
	out := make([]Position, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ClearPositions flattens every position without touching cash. Intended for
// resetting a simulation between sessions.
func (a *Account) ClearPositions() {
	for _, p := range a.positions {
		p.QtySats = 0
		p.AvgEntryPriceMicros = 0
		p.UnrealizedPnLMicros = 0
	}
}

// position returns the live position, creating it lazily on first use.
func (a *Account) position(symbol string) *Position {
	pos, ok := a.positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		a.positions[symbol] = pos
	}
	return pos
}

// VerifyInvariant checks ledger-wide consistency. Call after any mutation
// batch; violations are programming defects and halt the engine.
func (a *Account) VerifyInvariant() {
	for id, o := range a.orders {
		if o.ID != id {
			panic("LEDGER_INVARIANT_ORDER_KEY_MISMATCH: " + id)
		}
		o.VerifyInvariant()
	}
}
