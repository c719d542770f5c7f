package domain

import "paper_go/pkg/quant"

// AccountSnapshot is the serializable state handed to external persistence.
// Restoring it reproduces cash, position averages and pending orders exactly.
type AccountSnapshot struct {
	CashMicros int64           `json:"cash"`
	Positions  []Position      `json:"positions"`
	OpenOrders []Order         `json:"open_orders"`
	TakenUnixM quant.TimeStamp `json:"taken"`
}

// Snapshot captures the current ledger state. Terminal orders are not
// persisted; their effect already lives in cash and positions.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		CashMicros: a.CashMicros,
		Positions:  a.Positions(),
		OpenOrders: a.OpenOrders(),
		TakenUnixM: quant.Now(),
	}
}

// RestoreAccount rebuilds a ledger from a snapshot. The returned open orders
// are the live pointers registered in the ledger, in creation order, so the
// caller can re-insert them into the matching books.
func RestoreAccount(snap AccountSnapshot, instruments *InstrumentTable) (*Account, []*Order) {
	a := NewAccount(snap.CashMicros, instruments)
	for _, p := range snap.Positions {
		cp := p
		a.positions[p.Symbol] = &cp
	}
	live := make([]*Order, 0, len(snap.OpenOrders))
	for _, o := range snap.OpenOrders {
		cp := o
		a.RegisterOrder(&cp)
		live = append(live, &cp)
	}
	return a, live
}
