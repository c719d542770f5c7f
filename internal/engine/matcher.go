package engine

import (
	"github.com/google/uuid"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

// Matcher crosses resting simulated orders against incoming quote snapshots.
//
// Fill policy: a buy that crosses trades at the displayed ask, a sell at the
// displayed bid, capped by the displayed volume. Market orders additionally
// pay SlippageTicks of adverse price movement. The simulated orders never
// move the quoted market; the displayed top-of-book volume is the only
// liquidity throttle. That is a deliberate simplification of a local
// simulation, not an exchange guarantee.
type Matcher struct {
	SlippageTicks int64
}

// NewMatcher creates a matcher with the configured market-order slippage.
func NewMatcher(slippageTicks int64) *Matcher {
	return &Matcher{SlippageTicks: slippageTicks}
}

// Cross evaluates every resting order in the book against the quote, applies
// each resulting fill to the ledger immediately, and updates order state.
// Fully filled orders leave the book. Fills are returned in execution order.
//
// Orders are visited in price-time priority; the quoted volume is a shared
// budget consumed across the pass, so when the display can only cover one of
// two tied orders, the earlier one fills.
func (m *Matcher) Cross(book *OrderBook, acct *domain.Account, q domain.Quote, inst domain.Instrument) []domain.Fill {
	var fills []domain.Fill

	if q.HasAsk() {
		fills = m.crossSide(fills, book, acct, q, inst, domain.SideBuy)
	}
	if q.HasBid() {
		fills = m.crossSide(fills, book, acct, q, inst, domain.SideSell)
	}
	return fills
}

func (m *Matcher) crossSide(fills []domain.Fill, book *OrderBook, acct *domain.Account, q domain.Quote, inst domain.Instrument, side domain.Side) []domain.Fill {
	var (
		quotedPrice quant.PriceMicros
		budget      quant.QtySats
	)
	if side == domain.SideBuy {
		quotedPrice = q.AskPriceMicros
		budget = q.AskQtySats
	} else {
		quotedPrice = q.BidPriceMicros
		budget = q.BidQtySats
	}

	// Collect crossing orders first; the btree must not be mutated while
	// ascending. Collection stops as soon as the budget is spoken for.
	var eligible []*domain.Order
	reserved := quant.QtySats(0)
	walk := book.AscendBuys
	if side == domain.SideSell {
		walk = book.AscendSells
	}
	walk(func(e bookEntry) bool {
		if reserved >= budget {
			return false
		}
		o := e.Order
		if o.Type == domain.OrderTypeLimit {
			if side == domain.SideBuy && o.PriceMicros < quotedPrice {
				return false // sorted best-first; nothing later crosses
			}
			if side == domain.SideSell && o.PriceMicros > quotedPrice {
				return false
			}
		}
		eligible = append(eligible, o)
		reserved += o.RemainingSats()
		return true
	})

	for _, o := range eligible {
		if budget <= 0 {
			break
		}
		qty := quant.Min(o.RemainingSats(), budget)
		if qty <= 0 {
			continue
		}
		price := quotedPrice
		if o.Type == domain.OrderTypeMarket && m.SlippageTicks > 0 {
			// Slippage is adverse: buys pay up, sells receive less.
			price = price.AddTicks(side.Sign()*m.SlippageTicks, inst.TickMicros)
		}

		fill := domain.Fill{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			Symbol:      o.Symbol,
			Side:        side,
			PriceMicros: price,
			QtySats:     qty,
			Ts:          q.Ts,
		}

		// Ledger first, then order state; both panic rather than leave a
		// half-applied fill behind.
		acct.ApplyFill(fill)
		o.ApplyFill(qty)
		if !o.IsOpen() {
			book.Remove(o.ID)
		}

		budget -= qty
		fills = append(fills, fill)
	}
	return fills
}
