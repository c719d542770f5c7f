package event

import (
	"encoding/json"
	"fmt"

	"paper_go/internal/domain"
	"paper_go/pkg/quant"
)

// Event is the unit handed into the sequencer inbox. Producers build events,
// the sequencer stamps the sequence number when it admits them, and the
// journal persists them before any state mutation.
type Event interface {
	GetSeq() uint64
	SetSeq(uint64)
	GetType() string
}

// BaseEvent carries the fields shared by every event.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (b *BaseEvent) GetSeq() uint64 { return b.Seq }

func (b *BaseEvent) SetSeq(seq uint64) { b.Seq = seq }

func (b *BaseEvent) GetTs() quant.TimeStamp { return b.Ts }

const (
	TypeQuote       = "QUOTE"
	TypeSubmitOrder = "SUBMIT_ORDER"
	TypeCancelOrder = "CANCEL_ORDER"
)

// QuoteEvent delivers one immutable market snapshot.
type QuoteEvent struct {
	BaseEvent
	Quote domain.Quote `json:"quote"`
}

func (e *QuoteEvent) GetType() string { return TypeQuote }

// SubmitOrderEvent delivers a statically validated order into the serialized
// path. The order already has its id assigned; affordability is decided
// inside the loop so it observes a consistent ledger.
type SubmitOrderEvent struct {
	BaseEvent
	Order domain.Order `json:"order"`
}

func (e *SubmitOrderEvent) GetType() string { return TypeSubmitOrder }

// CancelOrderEvent requests cancellation of a working order. Result, when
// non-nil, receives the synchronous outcome (nil, ErrUnknownOrder or
// ErrAlreadyTerminal) exactly once.
type CancelOrderEvent struct {
	BaseEvent
	OrderID string       `json:"order_id"`
	Result  chan<- error `json:"-"`
}

func (e *CancelOrderEvent) GetType() string { return TypeCancelOrder }

// Decode rebuilds a journaled event from its stored type tag and payload.
// Used on the recovery path to replay the journal after an unclean shutdown.
func Decode(typ string, payload []byte) (Event, error) {
	var ev Event
	switch typ {
	case TypeQuote:
		ev = &QuoteEvent{}
	case TypeSubmitOrder:
		ev = &SubmitOrderEvent{}
	case TypeCancelOrder:
		ev = &CancelOrderEvent{}
	default:
		return nil, fmt.Errorf("unknown journaled event type %q", typ)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("corrupt journal payload for %s: %w", typ, err)
	}
	return ev, nil
}
