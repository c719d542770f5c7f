package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestOrder_ApplyFillLifecycle(t *testing.T) {
	o := Order{ID: "o1", Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeLimit, PriceMicros: price(100), QtySats: contracts(10), Status: OrderStatusPending}

	o.ApplyFill(contracts(4))
	if o.Status != OrderStatusPartiallyFilled || o.RemainingSats() != contracts(6) {
		t.Errorf("Expected PARTIALLY_FILLED with 6 remaining, got %s %d", o.Status, o.RemainingSats())
	}
	if !o.IsOpen() || o.IsTerminal() {
		t.Error("Partially filled order is still open")
	}

	o.ApplyFill(contracts(6))
	if o.Status != OrderStatusFilled || o.RemainingSats() != 0 {
		t.Errorf("Expected FILLED with 0 remaining, got %s %d", o.Status, o.RemainingSats())
	}
	if o.IsOpen() || !o.IsTerminal() {
		t.Error("Filled order is terminal")
	}
}

func TestOrder_OverfillPanics(t *testing.T) {
	o := Order{ID: "o1", QtySats: contracts(1), Status: OrderStatusPending}
	defer func() {
		if r := recover(); r == nil {
			t.Error("Overfill should panic")
		}
	}()
	o.ApplyFill(contracts(2))
}

func TestOrder_TerminalStates(t *testing.T) {
	for _, st := range []OrderStatus{OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected} {
		o := Order{Status: st}
		if !o.IsTerminal() {
			t.Errorf("%s should be terminal", st)
		}
	}
	for _, st := range []OrderStatus{OrderStatusPending, OrderStatusPartiallyFilled} {
		o := Order{Status: st}
		if o.IsTerminal() {
			t.Errorf("%s should not be terminal", st)
		}
	}
}

func TestIsRejection(t *testing.T) {
	if !IsRejection(&ValidationError{Field: "price", Msg: "bad"}) {
		t.Error("ValidationError is a rejection")
	}
	if !IsRejection(ErrInsufficientFunds) || !IsRejection(ErrUnknownInstrument) {
		t.Error("Submission sentinels are rejections")
	}
	if IsRejection(ErrEngineClosed) || IsRejection(fmt.Errorf("disk on fire")) {
		t.Error("Infrastructure faults are not rejections")
	}
	// Wrapped errors still classify.
	if !IsRejection(fmt.Errorf("submit: %w", ErrInsufficientFunds)) {
		t.Error("Wrapped sentinel should classify")
	}
	if errors.Is(ErrUnknownOrder, ErrAlreadyTerminal) {
		t.Error("Sentinels must be distinct")
	}
}
