// Package backtest drives a full run: it streams bars from a BarSource
// through the engine day by day, invokes the strategy, and persists the
// finished run's artifacts.
package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"barsim/internal/datasource"
	"barsim/internal/engine"
	"barsim/internal/logger"
	"barsim/internal/results"
	"barsim/internal/strategy"
	"barsim/internal/types"
	"barsim/pkg/errors"
)

// OnProgressCallback reports replay progress as bars consumed out of the
// total bar count.
type OnProgressCallback func(current int, total int)

// Runner wires a bar source, an engine and a strategy into one run.
type Runner struct {
	config    engine.Config
	log       *logger.Logger
	source    datasource.BarSource
	strat     strategy.Strategy
	resultDir string
}

// RunResult summarizes a completed run.
type RunResult struct {
	RunID       string
	Metrics     types.MetricsResult
	EquityCurve []types.EquityPoint
	Fills       []types.Fill
	Orders      []types.Order
	FinalCash   float64
}

// NewRunner creates a runner. resultDir may be empty to skip persistence.
func NewRunner(config engine.Config, source datasource.BarSource, strat strategy.Strategy, resultDir string, log *logger.Logger) *Runner {
	return &Runner{
		config:    config,
		log:       log,
		source:    source,
		strat:     strat,
		resultDir: resultDir,
	}
}

// strategyContext adapts the engine's read surface and order entry to the
// strategy.Context capability, keeping ledger and book internals out of
// strategy hands.
type strategyContext struct {
	engine *engine.Engine
}

func (c *strategyContext) CurrentBar(symbol string) (types.Bar, bool) {
	return c.engine.CurrentBar(symbol)
}

func (c *strategyContext) History(symbol string) []types.Bar { return c.engine.History(symbol) }

func (c *strategyContext) LastPrice(symbol string) (float64, bool) { return c.engine.LastPrice(symbol) }

func (c *strategyContext) Symbols() []string { return c.engine.Symbols() }

func (c *strategyContext) Cash() float64 { return c.engine.Cash() }

func (c *strategyContext) Equity() float64 { return c.engine.Equity() }

func (c *strategyContext) Position(symbol string) types.Position { return c.engine.Position(symbol) }

func (c *strategyContext) CancelOrder(id int64) error { return c.engine.CancelOrder(id) }

func (c *strategyContext) PlaceOrder(symbol string, side types.Side, quantity int64) (types.Order, error) {
	return c.engine.PlaceOrder(symbol, side, quantity)
}

// Run replays the full bar stream and returns the run summary. The per-day
// sequence is fixed: ingest the day's bars, invoke the strategy on each,
// match pending fills, then close the day.
func (r *Runner) Run(onProgress optional.Option[OnProgressCallback]) (*RunResult, error) {
	eng, err := engine.New(r.config, r.log)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()

	r.log.Info("Starting run",
		zap.String("run_id", runID),
		zap.String("strategy", r.strat.Name()),
	)

	total, err := r.source.Count(r.config.StartTime, r.config.EndTime)
	if err != nil {
		return nil, err
	}

	ctx := &strategyContext{engine: eng}

	var (
		dayBars []types.Bar
		dayDate time.Time
		current int
	)

	closeDay := func(date time.Time, bars []types.Bar) error {
		for _, bar := range bars {
			if err := eng.IngestBar(bar); err != nil {
				return err
			}
		}

		for _, bar := range bars {
			if err := r.strat.OnBar(ctx, bar); err != nil {
				return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err,
					"strategy %s failed on %s", r.strat.Name(), bar.Symbol)
			}
		}

		if _, err := eng.ProcessFillsForDate(date); err != nil {
			return err
		}

		if _, err := eng.EndOfDay(date); err != nil {
			return err
		}

		return nil
	}

	for bar, err := range r.source.ReadAll(r.config.StartTime, r.config.EndTime) {
		if err != nil {
			return nil, err
		}

		if len(dayBars) > 0 && !bar.Date.Equal(dayDate) {
			if err := closeDay(dayDate, dayBars); err != nil {
				return nil, err
			}

			dayBars = dayBars[:0]
		}

		dayDate = bar.Date
		dayBars = append(dayBars, bar)

		current++
		if onProgress.IsSome() {
			onProgress.Unwrap()(current, total)
		}
	}

	if len(dayBars) > 0 {
		if err := closeDay(dayDate, dayBars); err != nil {
			return nil, err
		}
	}

	if err := eng.Finalize(); err != nil {
		return nil, err
	}

	metrics, err := eng.Metrics()
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:       runID,
		Metrics:     metrics,
		EquityCurve: eng.EquityCurve(),
		Fills:       eng.Fills(),
		Orders:      eng.Orders(),
		FinalCash:   eng.Cash(),
	}

	if r.resultDir != "" {
		if err := r.writeResults(result); err != nil {
			return nil, err
		}
	}

	r.log.Info("Run finished",
		zap.String("run_id", runID),
		zap.Int("days", len(result.EquityCurve)),
		zap.Int("fills", len(result.Fills)),
		zap.Float64("final_cash", result.FinalCash),
	)

	return result, nil
}

func (r *Runner) writeResults(result *RunResult) error {
	writer, err := results.NewWriter(r.log)
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := writer.AddFills(result.Fills); err != nil {
		return err
	}

	if err := writer.AddOrders(result.Orders); err != nil {
		return err
	}

	if err := writer.AddEquityCurve(result.EquityCurve); err != nil {
		return err
	}

	return writer.Write(r.resultDir, result.Metrics)
}
