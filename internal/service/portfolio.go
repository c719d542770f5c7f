package service

import (
	"sort"
	"sync"

	"paper_go/internal/domain"
)

// maxFillHistory bounds the in-memory fill tail.
const maxFillHistory = 1000

// Portfolio is the read model fed by the sequencer. It keeps the latest
// order states, positions, and a bounded fill history behind an RWMutex so
// external readers never touch the hotpath's state.
type Portfolio struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	positions map[string]domain.Position
	fills     []domain.Fill
}

// NewPortfolio creates an empty read model.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		orders:    make(map[string]domain.Order),
		positions: make(map[string]domain.Position),
	}
}

// EmitOrder records the latest state of an order.
func (p *Portfolio) EmitOrder(o domain.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[o.ID] = o
}

// EmitFill appends a fill to the bounded history.
func (p *Portfolio) EmitFill(f domain.Fill) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fills = append(p.fills, f)
	if len(p.fills) > maxFillHistory {
		p.fills = p.fills[len(p.fills)-maxFillHistory:]
	}
}

// EmitPosition records the latest state of a position.
func (p *Portfolio) EmitPosition(pos domain.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[pos.Symbol] = pos
}

// Order returns the last published state of one order.
func (p *Portfolio) Order(id string) (domain.Order, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o, ok := p.orders[id]
	return o, ok
}

// Orders returns every published order, oldest first.
func (p *Portfolio) Orders() []domain.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Order, 0, len(p.orders))
	for _, o := range p.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedUnixM != out[j].CreatedUnixM {
			return out[i].CreatedUnixM < out[j].CreatedUnixM
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// OpenOrders returns the published orders that are still working.
func (p *Portfolio) OpenOrders() []domain.Order {
	all := p.Orders()
	out := all[:0]
	for _, o := range all {
		if o.IsOpen() {
			out = append(out, o)
		}
	}
	return out
}

// Position returns the last published state of one position.
func (p *Portfolio) Position(symbol string) (domain.Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.positions[symbol]
	return pos, ok
}

// Positions returns every published position, sorted by symbol.
func (p *Portfolio) Positions() []domain.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Fills returns the retained fill history, oldest first.
func (p *Portfolio) Fills() []domain.Fill {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Fill, len(p.fills))
	copy(out, p.fills)
	return out
}
