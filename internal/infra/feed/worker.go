package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"paper_go/internal/domain"
	"paper_go/internal/event"
	"paper_go/internal/infra"
	"paper_go/pkg/quant"
)

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// quoteMessage is the wire form of one top-of-book snapshot. Prices come in
// as exact decimal strings and are fixed into micros at this edge, once.
type quoteMessage struct {
	Type      string          `json:"type"` // quote
	Symbol    string          `json:"symbol"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	BidQty    decimal.Decimal `json:"bid_qty"`
	AskPrice  decimal.Decimal `json:"ask_price"`
	AskQty    decimal.Decimal `json:"ask_qty"`
	LastPrice decimal.Decimal `json:"last_price"`
	Timestamp int64           `json:"ts"` // unix milliseconds
}

// Worker maintains the market data WebSocket connection and feeds immutable
// quote snapshots into the sequencer inbox. It reconnects with exponential
// backoff and drops quotes instead of blocking when the inbox is full.
type Worker struct {
	url       string
	symbols   []string
	inbox     chan<- event.Event
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a new market data feed worker.
func NewWorker(url string, symbols []string, inbox chan<- event.Event) *Worker {
	return &Worker{
		url:     url,
		symbols: symbols,
		inbox:   inbox,
	}
}

// Connect starts the WebSocket connection loop.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.url, http.Header{})
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	infra.GlobalMetrics.SetFeedConnected(true)

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("Feed connected", slog.String("url", w.url), slog.Int("subs", len(w.symbols)))
	return nil
}

func (w *Worker) subscribe() error {
	msg := map[string]interface{}{
		"op":      "subscribe",
		"channel": "quote",
		"symbols": w.symbols,
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Capture the conn under the lock; Disconnect can nil the field at
		// any time and the read below must not chase a moved pointer.
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			w.closeConnection()
			return
		}
		w.handleMessage(msg)
	}
}

func (w *Worker) handleMessage(msg []byte) {
	var resp quoteMessage
	if json.Unmarshal(msg, &resp) != nil || resp.Type != "quote" {
		return
	}

	ev := event.AcquireQuoteEvent()
	ev.Ts = quant.TimeStamp(resp.Timestamp * 1000)
	ev.Quote = domain.Quote{
		Symbol:          resp.Symbol,
		BidPriceMicros:  quant.PriceFromDecimal(resp.BidPrice),
		BidQtySats:      quant.QtyFromDecimal(resp.BidQty),
		AskPriceMicros:  quant.PriceFromDecimal(resp.AskPrice),
		AskQtySats:      quant.QtyFromDecimal(resp.AskQty),
		LastPriceMicros: quant.PriceFromDecimal(resp.LastPrice),
		Ts:              quant.TimeStamp(resp.Timestamp * 1000),
	}

	select {
	case w.inbox <- ev:
	default: // DROP
		event.ReleaseQuoteEvent(ev)
		infra.GlobalMetrics.RecordQuoteDropped()
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	infra.GlobalMetrics.SetFeedConnected(false)
}

// Disconnect stops the worker and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
