package strategy

import (
	"math"

	"gopkg.in/yaml.v2"

	"barsim/internal/types"
	"barsim/pkg/errors"
)

// BuyAndHold buys each symbol once, on its first bar, and never sells.
// Useful as a benchmark against any active strategy.
type BuyAndHold struct {
	// allocation is the fraction of starting cash committed per symbol.
	allocation float64
	entered    map[string]bool
}

type buyAndHoldConfig struct {
	Allocation float64 `yaml:"allocation"`
}

// NewBuyAndHold creates the strategy committing 95% of cash to the first
// symbol seen.
func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{
		allocation: 0.95,
		entered:    make(map[string]bool),
	}
}

func (b *BuyAndHold) Name() string {
	return "buy_and_hold"
}

func (b *BuyAndHold) Initialize(config string) error {
	if config == "" {
		return nil
	}

	var cfg buyAndHoldConfig
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse buy_and_hold config", err)
	}

	if cfg.Allocation > 0 && cfg.Allocation <= 1 {
		b.allocation = cfg.Allocation
	}

	return nil
}

func (b *BuyAndHold) OnBar(ctx Context, bar types.Bar) error {
	if b.entered[bar.Symbol] {
		return nil
	}

	b.entered[bar.Symbol] = true

	// Sized against cash at decision time; entries for symbols first seen
	// after earlier fills settle get whatever is left.
	budget := ctx.Cash() * b.allocation

	quantity := int64(math.Floor(budget / bar.Close))
	if quantity <= 0 {
		return nil
	}

	_, err := ctx.PlaceOrder(bar.Symbol, types.SideBuy, quantity)

	return err
}
