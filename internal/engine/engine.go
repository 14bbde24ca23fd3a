// Package engine implements the bar-driven simulation core: it applies
// order-matching rules without look-ahead bias, keeps exact cash/position
// accounting, and derives risk/return metrics from the resulting equity
// series. One Engine instance is scoped to exactly one backtest run; it is
// single-threaded, performs no I/O, and is deterministic by construction.
package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"barsim/internal/engine/commission"
	"barsim/internal/logger"
	"barsim/internal/types"
	"barsim/pkg/errors"
)

// RunState is the engine lifecycle state.
type RunState string

const (
	// StateInitialized: ledger seeded, no bars ingested yet.
	StateInitialized RunState = "INITIALIZED"
	// StateRunning: bars, orders, fills and snapshots flow.
	StateRunning RunState = "RUNNING"
	// StateFinalized: no further mutation permitted; metrics available.
	StateFinalized RunState = "FINALIZED"
)

// Engine owns all run-scoped state: price context, order book, ledger,
// equity recorder and the accumulated fill log.
type Engine struct {
	config Config
	log    *logger.Logger

	state    RunState
	prices   *PriceContext
	book     *OrderBook
	ledger   *Ledger
	recorder *EquityRecorder
	matcher  *fillMatcher

	fills   []types.Fill
	matched map[time.Time]struct{}
	metrics optional.Option[types.MetricsResult]
}

// New creates an engine in the INITIALIZED state: ledger seeded with the
// configured starting capital, no bars ingested.
func New(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	prices := NewPriceContext()
	book := NewOrderBook()
	ledger := NewLedger(config.InitialCapital)

	e := &Engine{
		config:   config,
		log:      log,
		state:    StateInitialized,
		prices:   prices,
		book:     book,
		ledger:   ledger,
		recorder: NewEquityRecorder(),
		matcher: &fillMatcher{
			book:        book,
			ledger:      ledger,
			prices:      prices,
			commission:  commission.GetPolicy(config.Commission, config.CommissionRate),
			allowMargin: config.AllowMargin,
		},
		fills:   nil,
		matched: make(map[time.Time]struct{}),
		metrics: optional.None[types.MetricsResult](),
	}

	e.log.Debug("Engine initialized",
		zap.Float64("initial_capital", config.InitialCapital),
		zap.String("commission", string(config.Commission)),
		zap.Bool("allow_margin", config.AllowMargin),
	)

	return e, nil
}

// NewFromYAML creates an engine from a YAML config string.
func NewFromYAML(content string, log *logger.Logger) (*Engine, error) {
	config, err := ParseConfig(content)
	if err != nil {
		return nil, err
	}

	return New(config, log)
}

// State returns the engine lifecycle state.
func (e *Engine) State() RunState {
	return e.state
}

// IngestBar feeds one day of data for one symbol. The first bar moves the
// engine from INITIALIZED to RUNNING. Per symbol, dates must be strictly
// increasing; out-of-order or duplicate dates fail closed.
func (e *Engine) IngestBar(bar types.Bar) error {
	if err := e.checkMutable(); err != nil {
		return err
	}

	if bar.Symbol == "" {
		return errors.New(errors.ErrCodeInvalidBar, "bar symbol is empty")
	}

	if bar.Date.IsZero() {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar for %s has no date", bar.Symbol)
	}

	if err := e.prices.Ingest(bar); err != nil {
		return err
	}

	if e.state == StateInitialized {
		e.state = StateRunning
	}

	return nil
}

// PlaceOrder creates a PENDING order tagged with the current trading date
// and appends it to the symbol's FIFO queue. Orders are never eligible for
// matching on their submission date: a decision made after observing day
// D's bar can only execute using day D+1 (or later) data.
func (e *Engine) PlaceOrder(symbol string, side types.Side, quantity int64) (types.Order, error) {
	if err := e.checkMutable(); err != nil {
		return types.Order{}, err
	}

	if quantity <= 0 {
		return types.Order{}, errors.Newf(errors.ErrCodeInvalidOrder,
			"order quantity must be positive, got %d", quantity)
	}

	if side != types.SideBuy && side != types.SideSell {
		return types.Order{}, errors.Newf(errors.ErrCodeInvalidOrder,
			"order side must be BUY or SELL, got %q", side)
	}

	if !e.prices.HasSymbol(symbol) {
		return types.Order{}, errors.Newf(errors.ErrCodeUnknownSymbol,
			"unknown symbol %s: no bars ingested", symbol)
	}

	order := e.book.Add(symbol, side, quantity, e.prices.LatestDate())

	e.log.Debug("Order placed",
		zap.Int64("id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Int64("quantity", order.Quantity),
		zap.Time("submitted_at", order.SubmittedAt),
	)

	return order, nil
}

// CancelOrder flips a still-pending order to CANCELLED.
func (e *Engine) CancelOrder(id int64) error {
	if err := e.checkMutable(); err != nil {
		return err
	}

	return e.book.Cancel(id)
}

// ProcessFillsForDate matches pending eligible orders against bars dated
// date and returns the fills created by this call. Orders for symbols with
// no bar on date remain pending and wait for the symbol's next bar.
func (e *Engine) ProcessFillsForDate(date time.Time) ([]types.Fill, error) {
	if err := e.checkMutable(); err != nil {
		return nil, err
	}

	date = types.DateOf(date)
	fills := e.matcher.ProcessDate(date)
	e.fills = append(e.fills, fills...)
	e.matched[date] = struct{}{}

	if len(fills) > 0 {
		e.log.Debug("Fills processed",
			zap.Time("date", date),
			zap.Int("count", len(fills)),
		)
	}

	out := make([]types.Fill, len(fills))
	copy(out, fills)

	return out, nil
}

// EndOfDay snapshots equity for date: cash plus every position marked at
// its symbol's last known price. Matching must already have run for the
// date, and each date closes exactly once.
func (e *Engine) EndOfDay(date time.Time) (types.EquityPoint, error) {
	if err := e.checkMutable(); err != nil {
		return types.EquityPoint{}, err
	}

	date = types.DateOf(date)

	if _, ok := e.matched[date]; !ok {
		return types.EquityPoint{}, errors.Newf(errors.ErrCodeSequencing,
			"end of day for %s before fills were processed", date.Format(time.DateOnly))
	}

	equity := e.ledger.Valuation(e.prices).InexactFloat64()

	point, err := e.recorder.Record(date, equity)
	if err != nil {
		return types.EquityPoint{}, err
	}

	e.log.Debug("Equity recorded",
		zap.Time("date", point.Date),
		zap.Float64("equity", point.Equity),
	)

	return point, nil
}

// Finalize transitions the engine to FINALIZED. The transition is one-way:
// every mutating call afterwards fails, and Metrics become available.
func (e *Engine) Finalize() error {
	if e.state == StateFinalized {
		return errors.New(errors.ErrCodeEngineFinalized, "engine is already finalized")
	}

	e.state = StateFinalized

	e.log.Debug("Engine finalized",
		zap.Int("equity_points", e.recorder.Len()),
		zap.Int("fills", len(e.fills)),
	)

	return nil
}

// Metrics returns the summary statistics for the finalized run. The result
// is computed once from the completed equity series and memoized.
func (e *Engine) Metrics() (types.MetricsResult, error) {
	if e.state != StateFinalized {
		return types.MetricsResult{}, errors.New(errors.ErrCodeSequencing,
			"metrics requested before finalize")
	}

	if e.metrics.IsSome() {
		return e.metrics.Unwrap(), nil
	}

	result := calculateMetrics(e.recorder.Points(), e.config.RiskFreeRate)
	result.RealizedPnL = e.ledger.RealizedPnL()
	result.TotalFees = e.ledger.TotalFees()
	result.TradesClosed = e.ledger.TradesClosed()
	result.WinRate = e.ledger.WinRate()

	e.metrics = optional.Some(result)

	return result, nil
}

// EquityCurve returns the accumulated equity series in date order.
func (e *Engine) EquityCurve() []types.EquityPoint {
	return e.recorder.Points()
}

// Fills returns every fill created during the run, in creation order.
func (e *Engine) Fills() []types.Fill {
	out := make([]types.Fill, len(e.fills))
	copy(out, e.fills)

	return out
}

// Orders returns every order created during the run, in ID order.
func (e *Engine) Orders() []types.Order {
	return e.book.Orders()
}

// Cash returns the current cash balance.
func (e *Engine) Cash() float64 {
	return e.ledger.Cash()
}

// Position returns the current position for a symbol.
func (e *Engine) Position(symbol string) types.Position {
	return e.ledger.Position(symbol)
}

// Positions returns all non-flat positions sorted by symbol.
func (e *Engine) Positions() []types.Position {
	return e.ledger.Positions()
}

// Equity returns the current portfolio value against last known prices.
func (e *Engine) Equity() float64 {
	return e.ledger.Valuation(e.prices).InexactFloat64()
}

// CurrentBar returns the most recently ingested bar for a symbol.
func (e *Engine) CurrentBar(symbol string) (types.Bar, bool) {
	return e.prices.CurrentBar(symbol)
}

// History returns the ingested bar history for a symbol in date order.
func (e *Engine) History(symbol string) []types.Bar {
	return e.prices.History(symbol)
}

// LastPrice returns the last known price for a symbol.
func (e *Engine) LastPrice(symbol string) (float64, bool) {
	return e.prices.LastPrice(symbol)
}

// Symbols returns all symbols with at least one ingested bar, sorted.
func (e *Engine) Symbols() []string {
	return e.prices.Symbols()
}

// CurrentDate returns the most recent trading date ingested.
func (e *Engine) CurrentDate() time.Time {
	return e.prices.LatestDate()
}

func (e *Engine) checkMutable() error {
	if e.state == StateFinalized {
		return errors.New(errors.ErrCodeEngineFinalized, "engine is finalized; no further mutation permitted")
	}

	return nil
}
