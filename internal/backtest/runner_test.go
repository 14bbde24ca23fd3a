package backtest

import (
	"sort"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"barsim/internal/datasource"
	"barsim/internal/engine"
	"barsim/internal/logger"
	"barsim/internal/strategy"
	"barsim/internal/types"
)

// memoryBarSource serves a fixed bar slice, sorted by date then symbol.
type memoryBarSource struct {
	bars []types.Bar
}

func newMemoryBarSource(bars []types.Bar) *memoryBarSource {
	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}

		return sorted[i].Symbol < sorted[j].Symbol
	})

	return &memoryBarSource{bars: sorted}
}

func (m *memoryBarSource) Initialize(path string) error { return nil }

func (m *memoryBarSource) inWindow(bar types.Bar, start, end optional.Option[time.Time]) bool {
	if start.IsSome() && bar.Date.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && bar.Date.After(end.Unwrap()) {
		return false
	}

	return true
}

func (m *memoryBarSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if !m.inWindow(bar, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

func (m *memoryBarSource) ReadLastBar(symbol string) (types.Bar, error) {
	for i := len(m.bars) - 1; i >= 0; i-- {
		if m.bars[i].Symbol == symbol {
			return m.bars[i], nil
		}
	}

	return types.Bar{}, nil
}

func (m *memoryBarSource) Symbols() ([]string, error) {
	seen := make(map[string]struct{})

	var symbols []string

	for _, bar := range m.bars {
		if _, ok := seen[bar.Symbol]; !ok {
			seen[bar.Symbol] = struct{}{}
			symbols = append(symbols, bar.Symbol)
		}
	}

	sort.Strings(symbols)

	return symbols, nil
}

func (m *memoryBarSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if m.inWindow(bar, start, end) {
			count++
		}
	}

	return count, nil
}

func (m *memoryBarSource) ExecuteSQL(query string, params ...interface{}) ([]datasource.SQLResult, error) {
	return nil, nil
}

func (m *memoryBarSource) Close() error { return nil }

// buyOnceStrategy places a single fixed BUY after the first bar it sees.
type buyOnceStrategy struct {
	placed bool
}

func (s *buyOnceStrategy) Name() string { return "buy_once" }

func (s *buyOnceStrategy) Initialize(config string) error { return nil }

func (s *buyOnceStrategy) OnBar(ctx strategy.Context, bar types.Bar) error {
	if s.placed {
		return nil
	}

	s.placed = true

	_, err := ctx.PlaceOrder(bar.Symbol, types.SideBuy, 10)

	return err
}

// RunnerTestSuite is a test suite for Runner
type RunnerTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

// SetupSuite runs once before all tests in the suite
func (suite *RunnerTestSuite) SetupSuite() {
	suite.logger = logger.NewTestLogger()
}

// TestRunnerTestSuite runs the test suite
func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func testBar(symbol string, d int, open, close float64) types.Bar {
	return types.Bar{
		Symbol: symbol,
		Date:   time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
		Open:   open,
		High:   close + 1,
		Low:    open - 1,
		Close:  close,
		Volume: 1000,
	}
}

func (suite *RunnerTestSuite) TestRunFillsOnNextOpen() {
	source := newMemoryBarSource([]types.Bar{
		testBar("AAPL", 1, 99, 100),
		testBar("AAPL", 2, 101, 102),
		testBar("AAPL", 3, 102, 103),
	})

	runner := NewRunner(engine.DefaultConfig(), source, &buyOnceStrategy{}, "", suite.logger)

	result, err := runner.Run(optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	suite.Assert().NotEmpty(result.RunID)
	suite.Require().Len(result.Fills, 1)
	suite.Assert().Equal(101.0, result.Fills[0].Price)
	suite.Assert().Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), result.Fills[0].Date)

	suite.Assert().Equal(98_990.0, result.FinalCash)
	suite.Require().Len(result.EquityCurve, 3)

	// Day 1 all cash, day 2 marked at close 102, day 3 at close 103.
	suite.Assert().Equal(100_000.0, result.EquityCurve[0].Equity)
	suite.Assert().Equal(100_010.0, result.EquityCurve[1].Equity)
	suite.Assert().Equal(100_020.0, result.EquityCurve[2].Equity)
}

func (suite *RunnerTestSuite) TestRunReportsProgress() {
	source := newMemoryBarSource([]types.Bar{
		testBar("AAPL", 1, 99, 100),
		testBar("AAPL", 2, 101, 102),
	})

	var calls []int

	callback := optional.Some(OnProgressCallback(func(current, total int) {
		suite.Assert().Equal(2, total)
		calls = append(calls, current)
	}))

	runner := NewRunner(engine.DefaultConfig(), source, &buyOnceStrategy{}, "", suite.logger)

	_, err := runner.Run(callback)
	suite.Require().NoError(err)
	suite.Assert().Equal([]int{1, 2}, calls)
}

func (suite *RunnerTestSuite) TestRunHonorsTimeWindow() {
	source := newMemoryBarSource([]types.Bar{
		testBar("AAPL", 1, 99, 100),
		testBar("AAPL", 2, 101, 102),
		testBar("AAPL", 3, 102, 103),
	})

	config := engine.DefaultConfig()
	config.StartTime = optional.Some(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	runner := NewRunner(config, source, &buyOnceStrategy{}, "", suite.logger)

	result, err := runner.Run(optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	suite.Require().Len(result.EquityCurve, 2)
	suite.Assert().Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), result.EquityCurve[0].Date)
}

func (suite *RunnerTestSuite) TestRunDeterministicReplay() {
	bars := []types.Bar{
		testBar("AAPL", 1, 99, 100),
		testBar("MSFT", 1, 299, 300),
		testBar("AAPL", 2, 101, 102),
		testBar("MSFT", 2, 301, 302),
		testBar("AAPL", 3, 102, 103),
		testBar("MSFT", 3, 303, 304),
	}

	run := func() *RunResult {
		runner := NewRunner(engine.DefaultConfig(), newMemoryBarSource(bars), strategy.NewBuyAndHold(), "", suite.logger)

		result, err := runner.Run(optional.None[OnProgressCallback]())
		suite.Require().NoError(err)

		return result
	}

	first := run()
	second := run()

	suite.Assert().Equal(first.Fills, second.Fills)
	suite.Assert().Equal(first.EquityCurve, second.EquityCurve)
	suite.Assert().Equal(first.Metrics, second.Metrics)
	suite.Assert().Equal(first.FinalCash, second.FinalCash)
}

func (suite *RunnerTestSuite) TestRunWritesResults() {
	source := newMemoryBarSource([]types.Bar{
		testBar("AAPL", 1, 99, 100),
		testBar("AAPL", 2, 101, 102),
	})

	outDir := suite.T().TempDir() + "/run"
	runner := NewRunner(engine.DefaultConfig(), source, &buyOnceStrategy{}, outDir, suite.logger)

	result, err := runner.Run(optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	metrics, err := types.ReadMetrics(outDir + "/metrics.yaml")
	suite.Require().NoError(err)
	suite.Assert().Equal(result.Metrics, metrics)
}
