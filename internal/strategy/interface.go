package strategy

import (
	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

// ActionType defines the type of trading action
type ActionType int

const (
	ActionBuy ActionType = iota + 1
	ActionSell
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Side maps the action onto an order side.
func (a ActionType) Side() domain.Side {
	if a == ActionSell {
		return domain.SideSell
	}
	return domain.SideBuy
}

// Action represents a decision made by the strategy. The engine turns it
// into a limit order submission on the same serialized path as external
// order entry.
type Action struct {
	Type   ActionType
	Symbol string
	Price  quant.PriceMicros
	Qty    quant.QtySats
}

// Strategy is the interface that all trading strategies must implement.
// It is called synchronously by the sequencer for every admitted quote.
type Strategy interface {
	// OnQuote is called when a market quote is received.
	// It returns a list of Actions to be executed.
	OnQuote(q domain.Quote) []Action
}
