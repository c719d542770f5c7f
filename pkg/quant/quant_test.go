package quant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceFromDecimal(t *testing.T) {
	d := decimal.RequireFromString("50000.123456")
	if got := PriceFromDecimal(d); got != PriceMicros(50000_123456) {
		t.Errorf("Expected 50000123456 micros, got %d", got)
	}

	// Sub-micro precision truncates.
	d = decimal.RequireFromString("0.0000019")
	if got := PriceFromDecimal(d); got != PriceMicros(1) {
		t.Errorf("Expected 1 micro, got %d", got)
	}
}

func TestQtyFromDecimal(t *testing.T) {
	d := decimal.RequireFromString("0.1")
	if got := QtyFromDecimal(d); got != QtySats(10_000000) {
		t.Errorf("Expected 10000000 sats, got %d", got)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	p := PriceMicros(123_456789)
	if got := PriceFromDecimal(p.Decimal()); got != p {
		t.Errorf("Price round trip changed value: %d -> %d", p, got)
	}
	q := QtySats(987_654321)
	if got := QtyFromDecimal(q.Decimal()); got != q {
		t.Errorf("Qty round trip changed value: %d -> %d", q, got)
	}
}

func TestTickAlignment(t *testing.T) {
	tick := PriceMicros(100_000) // 0.1

	if !PriceMicros(50_000_000).IsTickAligned(tick) {
		t.Error("50.0 should be aligned to 0.1")
	}
	if PriceMicros(50_050_001).IsTickAligned(tick) {
		t.Error("50.050001 should not be aligned to 0.1")
	}
	if PriceMicros(50_000_000).IsTickAligned(0) {
		t.Error("Zero tick can never align")
	}
}

func TestAddTicks(t *testing.T) {
	tick := PriceMicros(100_000)
	p := PriceMicros(50_000_000)

	if got := p.AddTicks(3, tick); got != PriceMicros(50_300_000) {
		t.Errorf("Expected 50300000, got %d", got)
	}
	if got := p.AddTicks(-2, tick); got != PriceMicros(49_800_000) {
		t.Errorf("Expected 49800000, got %d", got)
	}
}

func TestRoundToTick(t *testing.T) {
	tick := PriceMicros(100_000)
	p := PriceMicros(50_050_000) // 50.05, between ticks

	if got := p.RoundDownToTick(tick); got != PriceMicros(50_000_000) {
		t.Errorf("Expected round down to 50000000, got %d", got)
	}
	if got := p.RoundUpToTick(tick); got != PriceMicros(50_100_000) {
		t.Errorf("Expected round up to 50100000, got %d", got)
	}

	// Aligned prices are untouched in both directions.
	aligned := PriceMicros(50_000_000)
	if aligned.RoundDownToTick(tick) != aligned || aligned.RoundUpToTick(tick) != aligned {
		t.Error("Aligned price should round to itself")
	}
}

func TestNotional(t *testing.T) {
	// 1 contract at 100.00 with multiplier 1 costs exactly 100.00.
	price := PriceMicros(100 * MicrosPerUnit)
	qty := QtySats(SatsPerUnit)
	if got := Notional(price, qty, 1); got != 100*MicrosPerUnit {
		t.Errorf("Expected %d, got %d", 100*MicrosPerUnit, got)
	}

	// 0.5 contracts at 100.00 with multiplier 10 costs 500.00.
	if got := Notional(price, QtySats(SatsPerUnit/2), 10); got != 500*MicrosPerUnit {
		t.Errorf("Expected %d, got %d", 500*MicrosPerUnit, got)
	}
}

func TestNextSeq(t *testing.T) {
	var seq uint64
	if got := NextSeq(&seq); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := NextSeq(&seq); got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
}
