package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"paper_go/internal/domain"
	"paper_go/internal/event"
	"paper_go/internal/infra"
	"paper_go/internal/strategy"
	"paper_go/pkg/quant"
)

// Emitter receives the engine's outbound events: order status changes,
// fills, and position updates. Implementations must not block; they run on
// the hotpath.
type Emitter interface {
	EmitOrder(o domain.Order)
	EmitFill(f domain.Fill)
	EmitPosition(p domain.Position)
}

// Journal persists admitted events before they mutate state (WAL-first).
type Journal interface {
	AppendEvent(seq uint64, typ string, ev any) error
}

// Config carries the engine tunables.
type Config struct {
	InboxSize     int
	SlippageTicks int64         // ticks of adverse slippage on market fills
	InstantTrade  bool          // cross new orders against the cached quote immediately
	MarkInterval  time.Duration // position republish cadence; 0 disables
}

// Sequencer is the core single-threaded event processor. It owns the account
// ledger, every order book, and the last-quote cache; all mutation happens on
// its goroutine, in arrival order, one event to completion at a time.
type Sequencer struct {
	inbox       chan event.Event
	account     *domain.Account
	instruments *domain.InstrumentTable
	books       map[string]*OrderBook
	quotes      map[string]domain.Quote
	matcher     *Matcher
	journal     Journal
	strategy    strategy.Strategy
	emitter     Emitter

	instantTrade bool
	markInterval time.Duration
	nextSeq      uint64

	done chan struct{}
	mu   sync.RWMutex // guards state for external reads
}

// NewSequencer creates a sequencer around a (possibly restored) account.
// Restored open orders are re-inserted into their books so they keep their
// original price-time priority.
func NewSequencer(cfg Config, acct *domain.Account, instruments *domain.InstrumentTable, restored []*domain.Order, journal Journal, strat strategy.Strategy, emitter Emitter) *Sequencer {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1024
	}
	s := &Sequencer{
		inbox:        make(chan event.Event, cfg.InboxSize),
		account:      acct,
		instruments:  instruments,
		books:        make(map[string]*OrderBook),
		quotes:       make(map[string]domain.Quote),
		matcher:      NewMatcher(cfg.SlippageTicks),
		journal:      journal,
		strategy:     strat,
		emitter:      emitter,
		instantTrade: cfg.InstantTrade,
		markInterval: cfg.MarkInterval,
		nextSeq:      1,
		done:         make(chan struct{}),
	}
	for _, o := range restored {
		s.book(o.Symbol).Insert(o)
	}
	return s
}

// Inbox returns the event channel. Feed workers send quote events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started (single-thread hotpath)")

	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			// Halt after dump; a corrupted ledger must not keep trading.
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	var tick <-chan time.Time
	if s.markInterval > 0 {
		ticker := time.NewTicker(s.markInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev)
		case <-tick:
			s.republishPositions()
		}
	}
}

func (s *Sequencer) processEvent(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Admission: stamp the sequence number.
	ev.SetSeq(s.nextSeq)

	// 2. WAL-first: persist before mutating anything.
	if s.journal != nil {
		if err := s.journal.AppendEvent(ev.GetSeq(), ev.GetType(), ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
	}

	// 3. Logic dispatch.
	s.dispatch(ev)

	// 4. Increment sequence, recycle pooled events.
	s.nextSeq++
	if qe, ok := ev.(*event.QuoteEvent); ok {
		event.ReleaseQuoteEvent(qe)
	}
}

// ReplayEvent processes a journaled event synchronously without re-logging.
// Replay must arrive in contiguous sequence order; a gap means the journal
// is broken and recovery must stop.
func (s *Sequencer) ReplayEvent(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}
	s.dispatch(ev)
	s.nextSeq++
}

func (s *Sequencer) dispatch(ev event.Event) {
	switch e := ev.(type) {
	case *event.QuoteEvent:
		s.handleQuote(e.Quote)
	case *event.SubmitOrderEvent:
		o := e.Order
		s.handleSubmit(&o)
	case *event.CancelOrderEvent:
		s.handleCancel(e)
	default:
		slog.Warn("Unknown event type", slog.String("type", ev.GetType()))
	}
}

// SubmitOrder validates a request, assigns an order id, and enqueues it on
// the serialized path. Validation failures return synchronously and mutate
// nothing; affordability is decided inside the loop and reported through an
// order-rejected event.
func (s *Sequencer) SubmitOrder(req domain.OrderRequest) (string, error) {
	inst, ok := s.instruments.Get(req.Symbol)
	if !ok {
		return "", domain.ErrUnknownInstrument
	}
	if req.QtySats <= 0 {
		return "", &domain.ValidationError{Field: "qty", Msg: "volume must be positive"}
	}
	switch req.Type {
	case domain.OrderTypeLimit:
		if req.PriceMicros <= 0 {
			return "", &domain.ValidationError{Field: "price", Msg: "limit price must be positive"}
		}
		if !req.PriceMicros.IsTickAligned(inst.TickMicros) {
			return "", &domain.ValidationError{Field: "price", Msg: "price not aligned to tick"}
		}
	case domain.OrderTypeMarket:
		req.PriceMicros = 0
	default:
		return "", &domain.ValidationError{Field: "type", Msg: "unknown order type"}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return "", &domain.ValidationError{Field: "side", Msg: "unknown side"}
	}

	o := domain.Order{
		ID:           uuid.New().String(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		Type:         req.Type,
		PriceMicros:  req.PriceMicros,
		QtySats:      req.QtySats,
		Status:       domain.OrderStatusPending,
		CreatedUnixM: quant.Now(),
	}

	ev := &event.SubmitOrderEvent{
		BaseEvent: event.BaseEvent{Ts: o.CreatedUnixM},
		Order:     o,
	}
	select {
	case s.inbox <- ev:
		return o.ID, nil
	case <-s.done:
		return "", domain.ErrEngineClosed
	}
}

// CancelOrder requests cancellation and waits for the serialized outcome.
// Because the intake queue is FIFO, the cancel takes effect before any quote
// enqueued after it can match the order.
func (s *Sequencer) CancelOrder(orderID string) error {
	result := make(chan error, 1)
	ev := &event.CancelOrderEvent{
		BaseEvent: event.BaseEvent{Ts: quant.Now()},
		OrderID:   orderID,
		Result:    result,
	}
	select {
	case s.inbox <- ev:
	case <-s.done:
		return domain.ErrEngineClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return domain.ErrEngineClosed
	}
}

func (s *Sequencer) handleQuote(q domain.Quote) {
	inst, ok := s.instruments.Get(q.Symbol)
	if !ok {
		slog.Warn("Quote for unknown instrument", slog.String("symbol", q.Symbol))
		return
	}

	s.quotes[q.Symbol] = q
	s.account.MarkToMarket(q)

	if book, ok := s.books[q.Symbol]; ok {
		fills := s.matcher.Cross(book, s.account, q, inst)
		s.publishFills(fills, q.Symbol)
	}

	if s.strategy != nil {
		for _, action := range s.strategy.OnQuote(q) {
			s.submitFromStrategy(action, inst)
		}
	}

	infra.GlobalMetrics.RecordQuote()
}

// submitFromStrategy turns a strategy action into a limit order on the same
// path as external submissions. Signal prices are snapped to the tick grid
// toward execution (buys up, sells down).
func (s *Sequencer) submitFromStrategy(action strategy.Action, inst domain.Instrument) {
	price := action.Price
	if action.Type == strategy.ActionBuy {
		price = price.RoundUpToTick(inst.TickMicros)
	} else {
		price = price.RoundDownToTick(inst.TickMicros)
	}
	if price <= 0 || action.Qty <= 0 {
		return
	}
	o := domain.Order{
		ID:           uuid.New().String(),
		Symbol:       action.Symbol,
		Side:         action.Type.Side(),
		Type:         domain.OrderTypeLimit,
		PriceMicros:  price,
		QtySats:      action.Qty,
		Status:       domain.OrderStatusPending,
		CreatedUnixM: quant.Now(),
	}
	slog.Info("STRATEGY_ACTION",
		slog.String("symbol", action.Symbol),
		slog.String("side", string(o.Side)),
		slog.Int64("price", int64(price)),
		slog.Int64("qty", int64(action.Qty)))
	s.handleSubmit(&o)
}

func (s *Sequencer) handleSubmit(o *domain.Order) {
	req := domain.OrderRequest{
		Symbol:      o.Symbol,
		Side:        o.Side,
		Type:        o.Type,
		PriceMicros: o.PriceMicros,
		QtySats:     o.QtySats,
	}
	if !s.account.CanAfford(req, s.referencePrice(o)) {
		o.Status = domain.OrderStatusRejected
		s.account.RegisterOrder(o)
		s.emitOrder(*o)
		infra.GlobalMetrics.RecordOrderRejected()
		return
	}

	s.account.RegisterOrder(o)
	s.book(o.Symbol).Insert(o)
	s.emitOrder(*o)
	infra.GlobalMetrics.RecordOrderAccepted()

	if s.instantTrade {
		if q, ok := s.quotes[o.Symbol]; ok {
			inst, _ := s.instruments.Get(o.Symbol)
			fills := s.matcher.Cross(s.books[o.Symbol], s.account, q, inst)
			s.publishFills(fills, o.Symbol)
		}
	}
}

// referencePrice picks the cash-sufficiency reference: the limit price for
// limit orders, the opposite best (falling back to last trade) for market
// orders.
func (s *Sequencer) referencePrice(o *domain.Order) quant.PriceMicros {
	if o.Type == domain.OrderTypeLimit {
		return o.PriceMicros
	}
	q, ok := s.quotes[o.Symbol]
	if !ok {
		return 0
	}
	if o.Side == domain.SideBuy && q.HasAsk() {
		return q.AskPriceMicros
	}
	if o.Side == domain.SideSell && q.HasBid() {
		return q.BidPriceMicros
	}
	return q.LastPriceMicros
}

func (s *Sequencer) handleCancel(e *event.CancelOrderEvent) {
	reply := func(err error) {
		if e.Result != nil {
			e.Result <- err
		}
	}

	o, ok := s.account.Order(e.OrderID)
	if !ok {
		reply(domain.ErrUnknownOrder)
		return
	}
	if o.IsTerminal() {
		reply(domain.ErrAlreadyTerminal)
		return
	}

	if book, ok := s.books[o.Symbol]; ok {
		book.Remove(o.ID)
	}
	o.Status = domain.OrderStatusCancelled
	s.emitOrder(*o)
	reply(nil)
}

func (s *Sequencer) publishFills(fills []domain.Fill, symbol string) {
	if len(fills) == 0 {
		return
	}
	for _, f := range fills {
		s.emitFill(f)
		if o, ok := s.account.Order(f.OrderID); ok {
			s.emitOrder(*o)
		}
		infra.GlobalMetrics.RecordFill()
	}
	if pos, ok := s.account.Position(symbol); ok {
		s.emitPosition(pos)
	}
}

func (s *Sequencer) republishPositions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pos := range s.account.Positions() {
		if q, ok := s.quotes[pos.Symbol]; ok {
			if updated, ok := s.account.MarkToMarket(q); ok {
				s.emitPosition(updated)
			}
		}
	}
}

func (s *Sequencer) emitOrder(o domain.Order) {
	if s.emitter != nil {
		s.emitter.EmitOrder(o)
	}
}

func (s *Sequencer) emitFill(f domain.Fill) {
	if s.emitter != nil {
		s.emitter.EmitFill(f)
	}
}

func (s *Sequencer) emitPosition(p domain.Position) {
	if s.emitter != nil {
		s.emitter.EmitPosition(p)
	}
}

// book returns the order book for a symbol, creating it lazily.
func (s *Sequencer) book(symbol string) *OrderBook {
	b, ok := s.books[symbol]
	if !ok {
		b = NewOrderBook(symbol)
		s.books[symbol] = b
	}
	return b
}

// NextSeq returns the next sequence number to be assigned (external read).
func (s *Sequencer) NextSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// Snapshot returns a copy of the account state (external read).
func (s *Sequencer) Snapshot() domain.AccountSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Snapshot()
}

// LastQuote returns the cached quote for a symbol (external read).
func (s *Sequencer) LastQuote(symbol string) (domain.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[symbol]
	return q, ok
}

// ClearPositions flattens all positions; used to reset a simulation.
func (s *Sequencer) ClearPositions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.ClearPositions()
	for _, pos := range s.account.Positions() {
		s.emitPosition(pos)
	}
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64                  `json:"next_seq"`
		Account domain.AccountSnapshot  `json:"account"`
		Quotes  map[string]domain.Quote `json:"quotes"`
	}{
		NextSeq: s.nextSeq,
		Account: s.account.Snapshot(),
		Quotes:  s.quotes,
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
