package engine

import (
	"sort"
	"time"

	"barsim/internal/types"
	"barsim/pkg/errors"
)

// PriceContext holds the most recently ingested bar and the full bar
// history per symbol. Matching prices fills against it and valuation reads
// last prices from it. All dates are normalized to midnight UTC.
type PriceContext struct {
	current map[string]types.Bar
	history map[string][]types.Bar
	latest  time.Time
}

func NewPriceContext() *PriceContext {
	return &PriceContext{
		current: make(map[string]types.Bar),
		history: make(map[string][]types.Bar),
		latest:  time.Time{},
	}
}

// Ingest records a bar as the symbol's current bar and appends it to the
// symbol's history. The bar's date must be strictly greater than the
// symbol's last ingested date.
func (p *PriceContext) Ingest(bar types.Bar) error {
	bar.Date = types.DateOf(bar.Date)

	if last, ok := p.current[bar.Symbol]; ok && !bar.Date.After(last.Date) {
		return errors.Newf(errors.ErrCodeOutOfOrderBar,
			"bar for %s dated %s is not after last ingested date %s",
			bar.Symbol, bar.Date.Format(time.DateOnly), last.Date.Format(time.DateOnly))
	}

	p.current[bar.Symbol] = bar
	p.history[bar.Symbol] = append(p.history[bar.Symbol], bar)

	if bar.Date.After(p.latest) {
		p.latest = bar.Date
	}

	return nil
}

// CurrentBar returns the symbol's most recently ingested bar.
func (p *PriceContext) CurrentBar(symbol string) (types.Bar, bool) {
	bar, ok := p.current[symbol]

	return bar, ok
}

// LastPrice returns the close of the symbol's most recently ingested bar,
// the price used for valuation.
func (p *PriceContext) LastPrice(symbol string) (float64, bool) {
	bar, ok := p.current[symbol]
	if !ok {
		return 0, false
	}

	return bar.Close, true
}

// History returns a copy of the symbol's ingested bars in date order.
func (p *PriceContext) History(symbol string) []types.Bar {
	bars := p.history[symbol]
	out := make([]types.Bar, len(bars))
	copy(out, bars)

	return out
}

// HasSymbol reports whether at least one bar was ingested for the symbol.
func (p *PriceContext) HasSymbol(symbol string) bool {
	_, ok := p.current[symbol]

	return ok
}

// Symbols returns all known symbols in sorted order. Matching iterates this
// so fill order is deterministic across runs.
func (p *PriceContext) Symbols() []string {
	symbols := make([]string, 0, len(p.current))
	for symbol := range p.current {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// LatestDate returns the most recent date ingested across all symbols.
// This is the engine's current trading date.
func (p *PriceContext) LatestDate() time.Time {
	return p.latest
}
