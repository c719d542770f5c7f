package quant

import (
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"paper_go/pkg/safe"
)

// Package quant defines the fixed-point units used on the hotpath.
// Prices and cash are int64 micros (1e-6 of the quote currency), quantities
// are int64 sats (1e-8 of a contract). Floating point never touches the
// ledger; decimal.Decimal is used only at the feed/config edge and converted
// here once.

type PriceMicros int64
type QtySats int64
type TimeStamp int64 // Unix microseconds

const (
	MicrosPerUnit int64 = 1_000_000
	SatsPerUnit   int64 = 100_000_000
)

var (
	decMicros = decimal.NewFromInt(MicrosPerUnit)
	decSats   = decimal.NewFromInt(SatsPerUnit)
)

// PriceFromDecimal converts an exact decimal price into micros,
// truncating anything below 1e-6.
func PriceFromDecimal(d decimal.Decimal) PriceMicros {
	return PriceMicros(d.Mul(decMicros).IntPart())
}

// QtyFromDecimal converts an exact decimal quantity into sats,
// truncating anything below 1e-8.
func QtyFromDecimal(d decimal.Decimal) QtySats {
	return QtySats(d.Mul(decSats).IntPart())
}

// Decimal returns the exact decimal representation of the price.
func (p PriceMicros) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(decMicros)
}

// Decimal returns the exact decimal representation of the quantity.
func (q QtySats) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(q)).Div(decSats)
}

// IsTickAligned reports whether the price lands on a multiple of tick.
func (p PriceMicros) IsTickAligned(tick PriceMicros) bool {
	if tick <= 0 {
		return false
	}
	return int64(p)%int64(tick) == 0
}

// AddTicks returns the price shifted by n ticks (n may be negative).
func (p PriceMicros) AddTicks(n int64, tick PriceMicros) PriceMicros {
	return PriceMicros(safe.SafeAdd(int64(p), safe.SafeMul(n, int64(tick))))
}

// RoundDownToTick truncates the price to the nearest tick at or below it.
func (p PriceMicros) RoundDownToTick(tick PriceMicros) PriceMicros {
	if tick <= 0 {
		return p
	}
	return p - p%tick
}

// RoundUpToTick lifts the price to the nearest tick at or above it.
func (p PriceMicros) RoundUpToTick(tick PriceMicros) PriceMicros {
	if tick <= 0 {
		return p
	}
	if rem := p % tick; rem != 0 {
		return PriceMicros(safe.SafeAdd(int64(p-rem), int64(tick)))
	}
	return p
}

// Notional computes price * qty * multiplier in micros.
// The qty scale is divided out after the multiply so a whole contract at
// price P costs exactly P*multiplier micros.
func Notional(price PriceMicros, qty QtySats, multiplier int64) int64 {
	gross := safe.SafeMul(int64(price), int64(qty)) / SatsPerUnit
	return safe.SafeMul(gross, multiplier)
}

// NextSeq atomically increments and returns the shared sequence counter.
func NextSeq(seq *uint64) uint64 {
	return atomic.AddUint64(seq, 1)
}

// Now returns the current wall clock as a TimeStamp.
func Now() TimeStamp {
	return TimeStamp(time.Now().UnixMicro())
}

// Min returns the smaller of two quantities.
func Min(a, b QtySats) QtySats {
	if a < b {
		return a
	}
	return b
}
