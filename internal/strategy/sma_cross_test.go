package strategy

import (
	"testing"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

func quoteAt(symbol string, priceUnits int64) domain.Quote {
	return domain.Quote{
		Symbol:          symbol,
		LastPriceMicros: quant.PriceMicros(priceUnits * quant.MicrosPerUnit),
		Ts:              1000,
	}
}

func TestSMACross_GoldenCross(t *testing.T) {
	strat := NewSMACrossStrategy("BTC-USDT", 2, 3, quant.QtySats(quant.SatsPerUnit))

	// Downtrend first so the short SMA starts below the long one.
	prices := []int64{110, 105, 100}
	for _, p := range prices {
		if actions := strat.OnQuote(quoteAt("BTC-USDT", p)); len(actions) != 0 {
			t.Fatalf("No signal expected during warmup, got %v", actions)
		}
	}

	// Sharp rally: short SMA crosses above long SMA.
	var got []Action
	for _, p := range []int64{120, 130} {
		got = append(got, strat.OnQuote(quoteAt("BTC-USDT", p))...)
	}

	if len(got) != 1 || got[0].Type != ActionBuy {
		t.Fatalf("Expected one BUY, got %v", got)
	}
	if got[0].Symbol != "BTC-USDT" || got[0].Qty != quant.QtySats(quant.SatsPerUnit) {
		t.Errorf("Bad action payload: %+v", got[0])
	}
}

func TestSMACross_DeadCross(t *testing.T) {
	strat := NewSMACrossStrategy("BTC-USDT", 2, 3, quant.QtySats(quant.SatsPerUnit))

	for _, p := range []int64{100, 105, 110} {
		strat.OnQuote(quoteAt("BTC-USDT", p))
	}

	var got []Action
	for _, p := range []int64{95, 85} {
		got = append(got, strat.OnQuote(quoteAt("BTC-USDT", p))...)
	}

	if len(got) != 1 || got[0].Type != ActionSell {
		t.Fatalf("Expected one SELL, got %v", got)
	}
}

func TestSMACross_IgnoresOtherSymbols(t *testing.T) {
	strat := NewSMACrossStrategy("BTC-USDT", 2, 3, quant.QtySats(quant.SatsPerUnit))

	for _, p := range []int64{100, 105, 110, 90, 80} {
		if actions := strat.OnQuote(quoteAt("ETH-USDT", p)); len(actions) != 0 {
			t.Fatalf("Foreign symbol must not signal, got %v", actions)
		}
	}
}

func TestSMACross_RejectsBadPeriods(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("short >= long should panic")
		}
	}()
	NewSMACrossStrategy("BTC-USDT", 5, 5, quant.QtySats(quant.SatsPerUnit))
}
