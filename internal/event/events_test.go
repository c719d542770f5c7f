package event

import (
	"encoding/json"
	"testing"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

func TestDecode_RoundTrip(t *testing.T) {
	t.Run("Quote", func(t *testing.T) {
		in := &QuoteEvent{
			BaseEvent: BaseEvent{Seq: 7, Ts: 1000},
			Quote: domain.Quote{
				Symbol:         "BTC-USDT",
				BidPriceMicros: 99_000_000, BidQtySats: 200_000_000,
				AskPriceMicros: 100_000_000, AskQtySats: 100_000_000,
				LastPriceMicros: 99_500_000, Ts: 1000,
			},
		}
		payload, _ := json.Marshal(in)

		out, err := Decode(TypeQuote, payload)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		qe, ok := out.(*QuoteEvent)
		if !ok {
			t.Fatalf("Expected QuoteEvent, got %T", out)
		}
		if qe.GetSeq() != 7 || qe.Quote != in.Quote {
			t.Errorf("Round trip changed the event: %+v", qe)
		}
	})

	t.Run("SubmitOrder", func(t *testing.T) {
		in := &SubmitOrderEvent{
			BaseEvent: BaseEvent{Seq: 8, Ts: 1001},
			Order: domain.Order{
				ID: "o1", Symbol: "BTC-USDT", Side: domain.SideBuy,
				Type: domain.OrderTypeLimit, PriceMicros: 100_000_000,
				QtySats: quant.QtySats(quant.SatsPerUnit), Status: domain.OrderStatusPending,
			},
		}
		payload, _ := json.Marshal(in)

		out, err := Decode(TypeSubmitOrder, payload)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		se := out.(*SubmitOrderEvent)
		if se.Order != in.Order {
			t.Errorf("Round trip changed the order: %+v", se.Order)
		}
	})

	t.Run("CancelOrder", func(t *testing.T) {
		in := &CancelOrderEvent{BaseEvent: BaseEvent{Seq: 9, Ts: 1002}, OrderID: "o1"}
		payload, _ := json.Marshal(in)

		out, err := Decode(TypeCancelOrder, payload)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		ce := out.(*CancelOrderEvent)
		if ce.OrderID != "o1" || ce.Result != nil {
			t.Errorf("Expected plain cancel with nil result channel, got %+v", ce)
		}
	})
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("NOT_A_TYPE", []byte("{}")); err == nil {
		t.Error("Unknown type should fail")
	}
	if _, err := Decode(TypeQuote, []byte("not json")); err == nil {
		t.Error("Corrupt payload should fail")
	}
}
