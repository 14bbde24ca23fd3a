package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"barsim/internal/types"
)

// Ledger owns the run's cash balance and per-symbol positions. It is
// mutated exclusively through ApplyFill; everything else is read-only.
// Cash arithmetic is decimal so conservation is exact, not approximate.
type Ledger struct {
	cash      decimal.Decimal
	positions map[string]*ledgerPosition

	realized     decimal.Decimal
	fees         decimal.Decimal
	tradesClosed int
	wins         int
}

type ledgerPosition struct {
	quantity int64
	avgCost  decimal.Decimal
}

// NewLedger seeds a ledger with the starting capital.
func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		cash:      decimal.NewFromFloat(initialCapital),
		positions: make(map[string]*ledgerPosition),
		realized:  decimal.Zero,
		fees:      decimal.Zero,
	}
}

// ApplyFill updates cash and the position for the fill's symbol. Buy fills
// decrease cash by price*qty+commission, sell fills increase it by
// price*qty-commission. Average cost follows the weighted-average rule on
// same-direction adds; reducing fills recognize realized PnL and keep the
// average; flips reset it to the fill price.
func (l *Ledger) ApplyFill(fill types.Fill) {
	price := decimal.NewFromFloat(fill.Price)
	notional := price.Mul(decimal.NewFromInt(fill.Quantity))
	fee := decimal.NewFromFloat(fill.Commission)

	if fill.Side == types.SideBuy {
		l.cash = l.cash.Sub(notional).Sub(fee)
	} else {
		l.cash = l.cash.Add(notional).Sub(fee)
	}

	l.fees = l.fees.Add(fee)

	pos, ok := l.positions[fill.Symbol]
	if !ok {
		pos = &ledgerPosition{quantity: 0, avgCost: decimal.Zero}
		l.positions[fill.Symbol] = pos
	}

	delta := fill.Side.Sign() * fill.Quantity
	oldQty := pos.quantity
	newQty := oldQty + delta

	switch {
	case oldQty == 0 || (oldQty > 0) == (delta > 0):
		// Opening or adding in the same direction: weighted average cost.
		oldNotional := pos.avgCost.Mul(decimal.NewFromInt(abs(oldQty)))
		addNotional := price.Mul(decimal.NewFromInt(abs(delta)))
		pos.avgCost = oldNotional.Add(addNotional).Div(decimal.NewFromInt(abs(newQty)))

	case abs(delta) <= abs(oldQty):
		// Reducing or closing: realize PnL on the closed quantity,
		// average cost unchanged for whatever remains.
		l.recognize(price, pos.avgCost, abs(delta), oldQty)

		if newQty == 0 {
			pos.avgCost = decimal.Zero
		}

	default:
		// Flipping through zero: realize on the full old position, the
		// remainder opens at the fill price.
		l.recognize(price, pos.avgCost, abs(oldQty), oldQty)
		pos.avgCost = price
	}

	pos.quantity = newQty
	if newQty == 0 {
		delete(l.positions, fill.Symbol)
	}
}

// recognize books realized PnL for closing closedQty units of a position
// that was previously oldQty (whose sign gives the direction closed).
func (l *Ledger) recognize(price, avgCost decimal.Decimal, closedQty, oldQty int64) {
	pnl := price.Sub(avgCost).Mul(decimal.NewFromInt(closedQty))
	if oldQty < 0 {
		pnl = pnl.Neg()
	}

	l.realized = l.realized.Add(pnl)
	l.tradesClosed++

	if pnl.IsPositive() {
		l.wins++
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash.InexactFloat64()
}

// CashDecimal returns the exact cash balance.
func (l *Ledger) CashDecimal() decimal.Decimal {
	return l.cash
}

// Position returns the current position for a symbol; a flat position with
// zero average cost when the symbol is not held.
func (l *Ledger) Position(symbol string) types.Position {
	pos, ok := l.positions[symbol]
	if !ok {
		return types.Position{Symbol: symbol, Quantity: 0, AvgCost: 0}
	}

	return types.Position{
		Symbol:   symbol,
		Quantity: pos.quantity,
		AvgCost:  pos.avgCost.InexactFloat64(),
	}
}

// Positions returns all non-flat positions sorted by symbol.
func (l *Ledger) Positions() []types.Position {
	symbols := make([]string, 0, len(l.positions))
	for symbol := range l.positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	out := make([]types.Position, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, l.Position(symbol))
	}

	return out
}

// Valuation marks every position at its symbol's last known price and adds
// cash: the equity value the recorder snapshots.
func (l *Ledger) Valuation(prices *PriceContext) decimal.Decimal {
	equity := l.cash

	for symbol, pos := range l.positions {
		price, ok := prices.LastPrice(symbol)
		if !ok {
			continue
		}

		mark := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.quantity))
		equity = equity.Add(mark)
	}

	return equity
}

// RealizedPnL returns the total profit recognized on reducing fills.
func (l *Ledger) RealizedPnL() float64 {
	return l.realized.InexactFloat64()
}

// TotalFees returns the sum of commissions across applied fills.
func (l *Ledger) TotalFees() float64 {
	return l.fees.InexactFloat64()
}

// TradesClosed returns the count of fills that reduced or closed a position.
func (l *Ledger) TradesClosed() int {
	return l.tradesClosed
}

// WinRate returns the fraction of closing fills with positive realized PnL.
func (l *Ledger) WinRate() float64 {
	if l.tradesClosed == 0 {
		return 0
	}

	return float64(l.wins) / float64(l.tradesClosed)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
