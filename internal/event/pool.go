package event

import (
	"sync"

	"paper_go/internal/domain"
)

// EventPool provides sync.Pool for high-frequency event allocation.
// Quotes arrive continuously; pooling them keeps GC pressure out of the
// hotpath. Order commands are rare enough to allocate normally.
//
// Usage:
//
//	ev := AcquireQuoteEvent()
//	ev.Quote = q
//	// ... hand to inbox; the sequencer releases it after processing ...
var quotePool = sync.Pool{
	New: func() interface{} {
		return &QuoteEvent{}
	},
}

// AcquireQuoteEvent gets a QuoteEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireQuoteEvent() *QuoteEvent {
	return quotePool.Get().(*QuoteEvent)
}

// ReleaseQuoteEvent returns a QuoteEvent to the pool.
// The event is reset to zero values before being pooled.
func ReleaseQuoteEvent(ev *QuoteEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Quote = domain.Quote{}

	quotePool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	evs := make([]*QuoteEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireQuoteEvent())
	}
	for _, ev := range evs {
		ReleaseQuoteEvent(ev)
	}
}
