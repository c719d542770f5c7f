package domain

import "paper_go/pkg/quant"

// Quote is an immutable top-of-book snapshot for one instrument.
// The engine never mutates a received quote.
type Quote struct {
	Symbol          string            `json:"symbol"`
	BidPriceMicros  quant.PriceMicros `json:"bid_price"`
	BidQtySats      quant.QtySats     `json:"bid_qty"`
	AskPriceMicros  quant.PriceMicros `json:"ask_price"`
	AskQtySats      quant.QtySats     `json:"ask_qty"`
	LastPriceMicros quant.PriceMicros `json:"last_price"`
	Ts              quant.TimeStamp   `json:"ts"`
}

// HasBid reports whether the snapshot carries a usable bid.
func (q *Quote) HasBid() bool {
	return q.BidPriceMicros > 0 && q.BidQtySats > 0
}

// HasAsk reports whether the snapshot carries a usable ask.
func (q *Quote) HasAsk() bool {
	return q.AskPriceMicros > 0 && q.AskQtySats > 0
}

// MarkPriceMicros is the reference price used for mark-to-market:
// last trade when present, mid otherwise.
func (q *Quote) MarkPriceMicros() quant.PriceMicros {
	if q.LastPriceMicros > 0 {
		return q.LastPriceMicros
	}
	if q.HasBid() && q.HasAsk() {
		return (q.BidPriceMicros + q.AskPriceMicros) / 2
	}
	return 0
}
