// Package strategy defines the user-supplied trading logic boundary. A
// strategy sees the market through the Context capability: read access to
// bars, prices and portfolio state, and a single write operation, placing
// orders. It never holds a direct reference into the engine's ledger or
// order book.
package strategy

import (
	"barsim/internal/types"
)

// Context is the capability handed to a strategy on every bar.
type Context interface {
	// CurrentBar returns the most recently ingested bar for a symbol.
	CurrentBar(symbol string) (types.Bar, bool)
	// History returns the ingested bar history for a symbol in date
	// order, for indicator computation.
	History(symbol string) []types.Bar
	// LastPrice returns the last known price for a symbol.
	LastPrice(symbol string) (float64, bool)
	// Symbols returns all symbols with at least one ingested bar.
	Symbols() []string
	// Cash returns the current cash balance.
	Cash() float64
	// Equity returns the current portfolio value.
	Equity() float64
	// Position returns the current position for a symbol.
	Position(symbol string) types.Position
	// PlaceOrder submits a market order. It executes at the open of the
	// symbol's next available bar, never on the submission date.
	PlaceOrder(symbol string, side types.Side, quantity int64) (types.Order, error)
	// CancelOrder cancels a still-pending order.
	CancelOrder(id int64) error
}

// Strategy is the fixed interface for user trading logic.
type Strategy interface {
	// Name returns the strategy name.
	Name() string
	// Initialize configures the strategy from a config string.
	Initialize(config string) error
	// OnBar is invoked once per trading day per symbol, after the bar is
	// ingested and before fills are matched for that date.
	OnBar(ctx Context, bar types.Bar) error
}
