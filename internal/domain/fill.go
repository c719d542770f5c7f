package domain

import "paper_go/pkg/quant"

// Fill records a single matched quantity between a resting order and the
// simulated market. Immutable once created; produced only by the matcher.
type Fill struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	Symbol      string            `json:"symbol"`
	Side        Side              `json:"side"`
	PriceMicros quant.PriceMicros `json:"price"`
	QtySats     quant.QtySats     `json:"qty"`
	Ts          quant.TimeStamp   `json:"ts"`
}
