package infra

import (
	"sync"
	"testing"
	"time"
)

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordQuote()
	m.RecordQuote()
	m.RecordFill()
	m.RecordOrderAccepted()
	m.RecordOrderRejected()
	m.RecordQuoteDropped()
	m.SetFeedConnected(true)

	snap := m.Snapshot()
	if snap.QuotesProcessed != 2 {
		t.Errorf("Expected 2 quotes, got %d", snap.QuotesProcessed)
	}
	if snap.Fills != 1 || snap.OrdersAccepted != 1 || snap.OrdersRejected != 1 || snap.QuotesDropped != 1 {
		t.Errorf("Counter mismatch: %+v", snap)
	}
	if !snap.FeedConnected {
		t.Error("Feed should be connected")
	}

	m.Reset()
	snap = m.Snapshot()
	if snap.QuotesProcessed != 0 || snap.FeedConnected {
		t.Errorf("Reset did not clear metrics: %+v", snap)
	}
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := &Metrics{}
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordQuote()
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().QuotesProcessed; got != 1000 {
		t.Errorf("Expected 1000 quotes, got %d", got)
	}
}

func TestCalculateBackoff(t *testing.T) {
	if got := CalculateBackoff(0); got != 1*time.Second {
		t.Errorf("Expected 1s, got %v", got)
	}
	if got := CalculateBackoff(3); got != 8*time.Second {
		t.Errorf("Expected 8s, got %v", got)
	}
	// Capped at the max.
	if got := CalculateBackoff(20); got != 60*time.Second {
		t.Errorf("Expected cap of 60s, got %v", got)
	}
}
