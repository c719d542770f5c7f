package strategy

import (
	"paper_go/internal/domain"
	"paper_go/pkg/quant"
	"paper_go/pkg/safe"
)

// SMACrossStrategy implements a simple SMA crossover on the quote mark price.
// It is stateful and deterministic. Uses a ring buffer so the hotpath stays
// allocation-free.
type SMACrossStrategy struct {
	symbol      string
	shortPeriod int
	longPeriod  int
	orderQty    quant.QtySats

	// State (ring buffer)
	prices []int64
	head   int   // current write position
	count  int   // number of elements filled
	sum    int64 // running sum over the long period

	prevShortSMA int64
	prevLongSMA  int64
}

// NewSMACrossStrategy creates a new instance.
func NewSMACrossStrategy(symbol string, shortPeriod, longPeriod int, orderQty quant.QtySats) *SMACrossStrategy {
	if shortPeriod >= longPeriod {
		panic("SMACrossStrategy: shortPeriod must be less than longPeriod")
	}
	return &SMACrossStrategy{
		symbol:      symbol,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		orderQty:    orderQty,
		prices:      make([]int64, longPeriod),
	}
}

// OnQuote processes quotes and generates crossover signals.
func (s *SMACrossStrategy) OnQuote(q domain.Quote) []Action {
	if q.Symbol != s.symbol {
		return nil
	}
	mark := q.MarkPriceMicros()
	if mark <= 0 {
		return nil
	}
	currentPrice := int64(mark)

	// Update price history. When full, the head slot holds the oldest value;
	// subtract it from the running sum before overwriting.
	if s.count == s.longPeriod {
		s.sum = safe.SafeSub(s.sum, s.prices[s.head])
	}
	s.prices[s.head] = currentPrice
	s.sum = safe.SafeAdd(s.sum, currentPrice)
	s.head = (s.head + 1) % s.longPeriod
	if s.count < s.longPeriod {
		s.count++
	}

	if s.count < s.longPeriod {
		return nil
	}

	currLongSMA := safe.SafeDiv(s.sum, int64(s.longPeriod))
	currShortSMA := s.calculateShortSMA()

	var actions []Action

	if s.prevShortSMA != 0 && s.prevLongSMA != 0 {
		// Golden cross: short goes above long
		if s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA {
			actions = append(actions, Action{
				Type:   ActionBuy,
				Symbol: s.symbol,
				Price:  mark,
				Qty:    s.orderQty,
			})
		}

		// Dead cross: short goes below long
		if s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA {
			actions = append(actions, Action{
				Type:   ActionSell,
				Symbol: s.symbol,
				Price:  mark,
				Qty:    s.orderQty,
			})
		}
	}

	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA

	return actions
}

// calculateShortSMA walks the ring buffer backwards from the latest entry.
func (s *SMACrossStrategy) calculateShortSMA() int64 {
	var sum int64
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = safe.SafeAdd(sum, s.prices[idx])
	}
	return safe.SafeDiv(sum, int64(s.shortPeriod))
}
