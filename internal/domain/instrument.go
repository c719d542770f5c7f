package domain

import (
	"sort"

	"paper_go/pkg/quant"
)

// Instrument is immutable reference data for one tradable contract.
type Instrument struct {
	Symbol     string            `json:"symbol"`
	TickMicros quant.PriceMicros `json:"tick"`       // minimum price increment
	Multiplier int64             `json:"multiplier"` // contract multiplier
	Precision  int32             `json:"precision"`  // display decimal places
}

// InstrumentTable is the read-only instrument registry loaded at startup.
type InstrumentTable struct {
	bySymbol map[string]Instrument
}

// NewInstrumentTable builds a table from reference data.
func NewInstrumentTable(instruments []Instrument) *InstrumentTable {
	m := make(map[string]Instrument, len(instruments))
	for _, inst := range instruments {
		m[inst.Symbol] = inst
	}
	return &InstrumentTable{bySymbol: m}
}

// Get returns the instrument for a symbol.
func (t *InstrumentTable) Get(symbol string) (Instrument, bool) {
	inst, ok := t.bySymbol[symbol]
	return inst, ok
}

// Symbols returns all registered symbols.
func (t *InstrumentTable) Symbols() []string {
	out := make([]string, 0, len(t.bySymbol))
	for s := range t.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// All returns every registered instrument, sorted by symbol.
func (t *InstrumentTable) All() []Instrument {
	out := make([]Instrument, 0, len(t.bySymbol))
	for _, s := range t.Symbols() {
		out = append(out, t.bySymbol[s])
	}
	return out
}
