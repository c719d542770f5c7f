package domain

import (
	"paper_go/pkg/quant"
	"paper_go/pkg/safe"
)

// Position tracks the net exposure in one instrument.
// QtySats is signed: positive long, negative short. Created lazily on first
// fill and never deleted; a flat position keeps its realized PnL history.
type Position struct {
	Symbol              string            `json:"symbol"`
	QtySats             quant.QtySats     `json:"qty"`
	AvgEntryPriceMicros quant.PriceMicros `json:"avg_entry_price"`
	RealizedPnLMicros   int64             `json:"realized_pnl"`
	UnrealizedPnLMicros int64             `json:"unrealized_pnl"`
}

// IsLong checks if the position is long.
func (p *Position) IsLong() bool {
	return p.QtySats > 0
}

// IsShort checks if the position is short.
func (p *Position) IsShort() bool {
	return p.QtySats < 0
}

// ApplyFill nets a fill into the position using the close-before-open rule:
// an opposite-direction fill first closes existing quantity (realizing PnL at
// the fill price), then any remainder opens fresh exposure in the new
// direction at the fill price. Same-direction fills extend the position and
// recompute the weighted average entry price. Returns the realized PnL delta
// in micros.
func (p *Position) ApplyFill(side Side, qty quant.QtySats, price quant.PriceMicros, multiplier int64) int64 {
	if qty <= 0 {
		panic("POSITION_FILL_NON_POSITIVE: " + p.Symbol)
	}

	signedQty := quant.QtySats(safe.SafeMul(side.Sign(), int64(qty)))

	// Flat or same-direction: extend and re-average.
	if p.QtySats == 0 || (p.QtySats > 0) == (signedQty > 0) {
		oldAbs := p.QtySats
		if oldAbs < 0 {
			oldAbs = -oldAbs
		}
		oldCost := safe.SafeMul(int64(oldAbs), int64(p.AvgEntryPriceMicros))
		newCost := safe.SafeAdd(oldCost, safe.SafeMul(int64(qty), int64(price)))
		newAbs := safe.SafeAdd(int64(oldAbs), int64(qty))
		p.AvgEntryPriceMicros = quant.PriceMicros(safe.SafeDiv(newCost, newAbs))
		p.QtySats += signedQty
		return 0
	}

	// Opposite direction: close first.
	oldAbs := int64(p.QtySats)
	oldSign := int64(1)
	if oldAbs < 0 {
		oldAbs = -oldAbs
		oldSign = -1
	}
	closed := int64(qty)
	if closed > oldAbs {
		closed = oldAbs
	}

	// realized = (fill - avg_entry) * closed * sign(existing) * multiplier
	perUnit := safe.SafeSub(int64(price), int64(p.AvgEntryPriceMicros))
	gross := safe.SafeMul(perUnit, closed) / quant.SatsPerUnit
	realized := safe.SafeMul(safe.SafeMul(gross, oldSign), multiplier)
	p.RealizedPnLMicros = safe.SafeAdd(p.RealizedPnLMicros, realized)

	p.QtySats += signedQty
	remainder := int64(qty) - closed
	if remainder > 0 {
		// Direction flipped: remainder opens at the fill price.
		p.AvgEntryPriceMicros = price
	} else if p.QtySats == 0 {
		p.AvgEntryPriceMicros = 0
	}

	return realized
}

// MarkToMarket recomputes unrealized PnL against the reference price.
// It never touches cash or realized PnL.
func (p *Position) MarkToMarket(mark quant.PriceMicros, multiplier int64) {
	if p.QtySats == 0 || mark <= 0 {
		p.UnrealizedPnLMicros = 0
		return
	}
	perUnit := safe.SafeSub(int64(mark), int64(p.AvgEntryPriceMicros))
	gross := safe.SafeMul(perUnit, int64(p.QtySats)) / quant.SatsPerUnit
	p.UnrealizedPnLMicros = safe.SafeMul(gross, multiplier)
}
