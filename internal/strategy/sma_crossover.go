package strategy

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v2"

	"barsim/internal/types"
	"barsim/pkg/errors"
)

// SMACrossover buys when the short moving average crosses above the long
// moving average and exits when it crosses back below.
type SMACrossover struct {
	shortPeriod int
	longPeriod  int
	// allocation is the fraction of current cash committed on entry.
	allocation float64
}

type smaCrossoverConfig struct {
	ShortPeriod int     `yaml:"short_period"`
	LongPeriod  int     `yaml:"long_period"`
	Allocation  float64 `yaml:"allocation"`
}

// NewSMACrossover creates the strategy with default periods (5/20).
func NewSMACrossover() *SMACrossover {
	return &SMACrossover{
		shortPeriod: 5,
		longPeriod:  20,
		allocation:  0.95,
	}
}

// Name returns the name of the strategy.
func (s *SMACrossover) Name() string {
	return fmt.Sprintf("sma_crossover_%d_%d", s.shortPeriod, s.longPeriod)
}

// Initialize parses the YAML config; empty config keeps the defaults.
func (s *SMACrossover) Initialize(config string) error {
	if config == "" {
		return nil
	}

	var cfg smaCrossoverConfig
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse sma_crossover config", err)
	}

	if cfg.ShortPeriod > 0 {
		s.shortPeriod = cfg.ShortPeriod
	}

	if cfg.LongPeriod > 0 {
		s.longPeriod = cfg.LongPeriod
	}

	if cfg.Allocation > 0 && cfg.Allocation <= 1 {
		s.allocation = cfg.Allocation
	}

	if s.shortPeriod >= s.longPeriod {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"short period %d must be less than long period %d", s.shortPeriod, s.longPeriod)
	}

	return nil
}

// OnBar checks for a crossover on the symbol's close history and places a
// market order; with the one-day execution delay it fills at the next
// available open.
func (s *SMACrossover) OnBar(ctx Context, bar types.Bar) error {
	history := ctx.History(bar.Symbol)

	// Need one extra point to compare against the previous averages.
	if len(history) <= s.longPeriod {
		return nil
	}

	shortMA := smaOf(history, s.shortPeriod)
	longMA := smaOf(history, s.longPeriod)

	prev := history[:len(history)-1]
	prevShortMA := smaOf(prev, s.shortPeriod)
	prevLongMA := smaOf(prev, s.longPeriod)

	position := ctx.Position(bar.Symbol)

	// Entry: short MA crosses above long MA.
	if shortMA > longMA && prevShortMA <= prevLongMA && position.IsFlat() {
		quantity := int64(math.Floor(ctx.Cash() * s.allocation / bar.Close))
		if quantity <= 0 {
			return nil
		}

		if _, err := ctx.PlaceOrder(bar.Symbol, types.SideBuy, quantity); err != nil {
			return err
		}

		return nil
	}

	// Exit: short MA crosses below long MA.
	if shortMA < longMA && prevShortMA >= prevLongMA && position.Quantity > 0 {
		if _, err := ctx.PlaceOrder(bar.Symbol, types.SideSell, position.Quantity); err != nil {
			return err
		}
	}

	return nil
}

// smaOf returns the simple moving average of the last period closes.
func smaOf(bars []types.Bar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for _, bar := range bars[len(bars)-period:] {
		sum += bar.Close
	}

	return sum / float64(period)
}
