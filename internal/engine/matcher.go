package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"barsim/internal/engine/commission"
	"barsim/internal/types"
)

// fillMatcher converts eligible pending orders into fills against the
// current day's bars. It is the only component allowed to mutate the
// ledger. Matching is a pure function of engine state: no randomness, no
// wall-clock reads.
type fillMatcher struct {
	book        *OrderBook
	ledger      *Ledger
	prices      *PriceContext
	commission  commission.Policy
	allowMargin bool
}

// ProcessDate matches every eligible pending order against its symbol's
// bar for date. Eligible means submitted strictly before date: a decision
// made after observing day D's bar can only execute on day D+1 or later.
// Fills execute at the bar's open, full quantity. Symbols without a bar on
// date keep their queues untouched and wait for the next available bar.
func (m *fillMatcher) ProcessDate(date time.Time) []types.Fill {
	date = types.DateOf(date)

	var fills []types.Fill

	for _, symbol := range m.prices.Symbols() {
		bar, ok := m.prices.CurrentBar(symbol)
		if !ok || !bar.Date.Equal(date) {
			// Market holiday for this symbol: pending orders wait.
			continue
		}

		for _, id := range m.book.PopEligible(symbol, date) {
			order, _ := m.book.Get(id)

			fill, ok := m.tryFill(order, bar)
			if !ok {
				m.book.SetState(id, types.OrderStateRejected)

				continue
			}

			m.ledger.ApplyFill(fill)
			m.book.SetState(id, types.OrderStateFilled)
			fills = append(fills, fill)
		}
	}

	return fills
}

// tryFill prices the order at the bar's open and applies the margin
// policy. A false return means the order is rejected with no ledger
// mutation: rejection is recorded on the order, never thrown.
func (m *fillMatcher) tryFill(order types.Order, bar types.Bar) (types.Fill, bool) {
	fill := types.Fill{
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Quantity:   order.Quantity,
		Price:      bar.Open,
		Date:       bar.Date,
		Commission: m.commission.Calculate(order.Quantity, bar.Open),
	}

	if m.allowMargin {
		return fill, true
	}

	if order.Side == types.SideBuy {
		cost := decimal.NewFromFloat(fill.Price).
			Mul(decimal.NewFromInt(fill.Quantity)).
			Add(decimal.NewFromFloat(fill.Commission))
		if m.ledger.CashDecimal().LessThan(cost) {
			return types.Fill{}, false
		}

		return fill, true
	}

	// Sells may only reduce an existing long: no short exposure without
	// margin, and full fills mean an oversized sell cannot be clamped.
	held := m.ledger.Position(order.Symbol).Quantity
	if held < order.Quantity {
		return types.Fill{}, false
	}

	return fill, true
}
