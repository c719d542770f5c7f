package domain

import (
	"testing"

	"paper_go/pkg/quant"
)

// price converts whole units to micros.
func price(units int64) quant.PriceMicros {
	return quant.PriceMicros(units * quant.MicrosPerUnit)
}

// contracts converts whole contracts to sats.
func contracts(n int64) quant.QtySats {
	return quant.QtySats(n * quant.SatsPerUnit)
}

func TestPosition_OpenAndExtend(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}

	realized := pos.ApplyFill(SideBuy, contracts(10), price(100), 1)
	if realized != 0 {
		t.Errorf("Opening a position should realize nothing, got %d", realized)
	}
	if pos.QtySats != contracts(10) || pos.AvgEntryPriceMicros != price(100) {
		t.Errorf("Expected 10 @ 100, got %d @ %d", pos.QtySats, pos.AvgEntryPriceMicros)
	}

	// Extend: avg entry is volume-weighted.
	pos.ApplyFill(SideBuy, contracts(10), price(110), 1)
	if pos.QtySats != contracts(20) || pos.AvgEntryPriceMicros != price(105) {
		t.Errorf("Expected 20 @ 105, got %d @ %d", pos.QtySats, pos.AvgEntryPriceMicros)
	}
}

func TestPosition_PartialClose(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}
	pos.ApplyFill(SideBuy, contracts(10), price(100), 1)

	realized := pos.ApplyFill(SideSell, contracts(4), price(105), 1)

	// (105 - 100) * 4 = 20 units of profit.
	if realized != 20*quant.MicrosPerUnit {
		t.Errorf("Expected realized 20000000, got %d", realized)
	}
	if pos.QtySats != contracts(6) {
		t.Errorf("Expected 6 remaining, got %d", pos.QtySats)
	}
	// Closing must not move the entry price.
	if pos.AvgEntryPriceMicros != price(100) {
		t.Errorf("Avg entry should stay 100, got %d", pos.AvgEntryPriceMicros)
	}
}

func TestPosition_FullCloseGoesFlat(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}
	pos.ApplyFill(SideBuy, contracts(10), price(100), 1)
	pos.ApplyFill(SideSell, contracts(10), price(95), 1)

	if pos.QtySats != 0 {
		t.Errorf("Expected flat, got %d", pos.QtySats)
	}
	if pos.AvgEntryPriceMicros != 0 {
		t.Errorf("Flat position should reset avg entry, got %d", pos.AvgEntryPriceMicros)
	}
	// Loss: (95 - 100) * 10 = -50 units.
	if pos.RealizedPnLMicros != -50*quant.MicrosPerUnit {
		t.Errorf("Expected realized -50000000, got %d", pos.RealizedPnLMicros)
	}
}

func TestPosition_FlipLongToShort(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}
	pos.ApplyFill(SideBuy, contracts(10), price(100), 1)

	// Sell 15: closes 10, opens 5 short at the fill price.
	realized := pos.ApplyFill(SideSell, contracts(15), price(105), 1)

	if realized != 50*quant.MicrosPerUnit {
		t.Errorf("Expected realized 50000000, got %d", realized)
	}
	if pos.QtySats != -contracts(5) {
		t.Errorf("Expected short 5, got %d", pos.QtySats)
	}
	if pos.AvgEntryPriceMicros != price(105) {
		t.Errorf("Remainder should open at 105, got %d", pos.AvgEntryPriceMicros)
	}
}

func TestPosition_ShortSide(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}
	pos.ApplyFill(SideSell, contracts(10), price(100), 1)

	if !pos.IsShort() {
		t.Fatal("Position should be short")
	}

	// Buy back lower: (90 - 100) * 10 * -1 = +100 units.
	realized := pos.ApplyFill(SideBuy, contracts(10), price(90), 1)
	if realized != 100*quant.MicrosPerUnit {
		t.Errorf("Expected realized 100000000, got %d", realized)
	}
}

func TestPosition_Multiplier(t *testing.T) {
	pos := Position{Symbol: "IF-2609"}
	pos.ApplyFill(SideBuy, contracts(2), price(100), 300)
	realized := pos.ApplyFill(SideSell, contracts(2), price(101), 300)

	// (101 - 100) * 2 * 300 = 600 units.
	if realized != 600*quant.MicrosPerUnit {
		t.Errorf("Expected realized 600000000, got %d", realized)
	}
}

func TestPosition_MarkToMarket(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}
	pos.ApplyFill(SideBuy, contracts(10), price(100), 1)

	pos.MarkToMarket(price(105), 1)
	if pos.UnrealizedPnLMicros != 50*quant.MicrosPerUnit {
		t.Errorf("Expected unrealized 50000000, got %d", pos.UnrealizedPnLMicros)
	}

	pos.MarkToMarket(price(95), 1)
	if pos.UnrealizedPnLMicros != -50*quant.MicrosPerUnit {
		t.Errorf("Expected unrealized -50000000, got %d", pos.UnrealizedPnLMicros)
	}

	// Flat positions never carry unrealized PnL.
	pos.ApplyFill(SideSell, contracts(10), price(95), 1)
	pos.MarkToMarket(price(200), 1)
	if pos.UnrealizedPnLMicros != 0 {
		t.Errorf("Flat position should have zero unrealized, got %d", pos.UnrealizedPnLMicros)
	}
}

func TestPosition_RejectsNonPositiveFill(t *testing.T) {
	pos := Position{Symbol: "BTC-USDT"}
	defer func() {
		if r := recover(); r == nil {
			t.Error("Zero-quantity fill should panic")
		}
	}()
	pos.ApplyFill(SideBuy, 0, price(100), 1)
}
