package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	quotesProcessed atomic.Uint64
	fills           atomic.Uint64
	ordersAccepted  atomic.Uint64
	ordersRejected  atomic.Uint64
	quotesDropped   atomic.Uint64

	// Gauges
	feedConnected atomic.Int32 // 1 = connected, 0 = down
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordQuote records one processed quote.
func (m *Metrics) RecordQuote() {
	m.quotesProcessed.Add(1)
}

// RecordFill records one fill produced by the matcher.
func (m *Metrics) RecordFill() {
	m.fills.Add(1)
}

// RecordOrderAccepted records an accepted order submission.
func (m *Metrics) RecordOrderAccepted() {
	m.ordersAccepted.Add(1)
}

// RecordOrderRejected records a rejected order submission.
func (m *Metrics) RecordOrderRejected() {
	m.ordersRejected.Add(1)
}

// RecordQuoteDropped records a quote discarded because the inbox was full.
func (m *Metrics) RecordQuoteDropped() {
	m.quotesDropped.Add(1)
}

// SetFeedConnected sets the market data feed state.
func (m *Metrics) SetFeedConnected(connected bool) {
	if connected {
		m.feedConnected.Store(1)
	} else {
		m.feedConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	QuotesProcessed uint64
	Fills           uint64
	OrdersAccepted  uint64
	OrdersRejected  uint64
	QuotesDropped   uint64
	FeedConnected   bool
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		QuotesProcessed: m.quotesProcessed.Load(),
		Fills:           m.fills.Load(),
		OrdersAccepted:  m.ordersAccepted.Load(),
		OrdersRejected:  m.ordersRejected.Load(),
		QuotesDropped:   m.quotesDropped.Load(),
		FeedConnected:   m.feedConnected.Load() == 1,
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.quotesProcessed.Store(0)
	m.fills.Store(0)
	m.ordersAccepted.Store(0)
	m.ordersRejected.Store(0)
	m.quotesDropped.Store(0)
	m.feedConnected.Store(0)
}
