package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"paper_go/internal/domain"
	"paper_go/internal/event"
	"paper_go/internal/infra"
	"paper_go/pkg/quant"
)

// Simulator produces a deterministic random-walk quote stream for offline
// use: each interval every instrument's mid moves by at most one tick, with
// a one-tick spread and small random displayed volumes. A fixed seed
// reproduces the exact same tape, which keeps simulation runs comparable.
type Simulator struct {
	instruments []domain.Instrument
	inbox       chan<- event.Event
	interval    time.Duration
	rng         *rand.Rand
	mids        map[string]quant.PriceMicros
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// startMidTicks is the walk's starting mid, expressed in ticks.
const startMidTicks = 1_000_000

// NewSimulator creates a simulated feed for the given instruments.
func NewSimulator(instruments []domain.Instrument, inbox chan<- event.Event, interval time.Duration, seed int64) *Simulator {
	mids := make(map[string]quant.PriceMicros, len(instruments))
	for _, inst := range instruments {
		mids[inst.Symbol] = quant.PriceMicros(0).AddTicks(startMidTicks, inst.TickMicros)
	}
	return &Simulator{
		instruments: instruments,
		inbox:       inbox,
		interval:    interval,
		rng:         rand.New(rand.NewSource(seed)),
		mids:        mids,
	}
}

// Connect starts the quote generator.
func (s *Simulator) Connect(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

func (s *Simulator) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("Sim feed started", slog.Int("instruments", len(s.instruments)), slog.Duration("interval", s.interval))
	infra.GlobalMetrics.SetFeedConnected(true)
	defer infra.GlobalMetrics.SetFeedConnected(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, inst := range s.instruments {
				s.emitQuote(inst)
			}
		}
	}
}

func (s *Simulator) emitQuote(inst domain.Instrument) {
	mid := s.mids[inst.Symbol]
	step := int64(s.rng.Intn(3) - 1) // -1, 0, +1 ticks
	mid = mid.AddTicks(step, inst.TickMicros)
	if mid <= inst.TickMicros {
		mid = inst.TickMicros.AddTicks(1, inst.TickMicros)
	}
	s.mids[inst.Symbol] = mid

	// Displayed size: 1..10 whole contracts a side.
	bidQty := quant.QtySats(int64(s.rng.Intn(10)+1) * quant.SatsPerUnit)
	askQty := quant.QtySats(int64(s.rng.Intn(10)+1) * quant.SatsPerUnit)

	now := quant.Now()
	ev := event.AcquireQuoteEvent()
	ev.Ts = now
	ev.Quote = domain.Quote{
		Symbol:          inst.Symbol,
		BidPriceMicros:  mid.AddTicks(-1, inst.TickMicros),
		BidQtySats:      bidQty,
		AskPriceMicros:  mid.AddTicks(1, inst.TickMicros),
		AskQtySats:      askQty,
		LastPriceMicros: mid,
		Ts:              now,
	}

	select {
	case s.inbox <- ev:
	default: // DROP
		event.ReleaseQuoteEvent(ev)
		infra.GlobalMetrics.RecordQuoteDropped()
	}
}

// Disconnect stops the generator.
func (s *Simulator) Disconnect() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
