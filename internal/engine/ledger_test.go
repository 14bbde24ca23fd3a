package engine

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"barsim/internal/types"
)

// LedgerTestSuite is a test suite for Ledger
type LedgerTestSuite struct {
	suite.Suite
	ledger *Ledger
}

// SetupTest runs before each test
func (suite *LedgerTestSuite) SetupTest() {
	suite.ledger = NewLedger(100_000)
}

// TestLedgerTestSuite runs the test suite
func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) fill(symbol string, side types.Side, quantity int64, price, commission float64) types.Fill {
	return types.Fill{
		OrderID:    1,
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Date:       day(2),
		Commission: commission,
	}
}

func (suite *LedgerTestSuite) TestBuyDebitsCashExactly() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 101, 0))

	suite.Assert().Equal(98_990.0, suite.ledger.Cash())

	pos := suite.ledger.Position("AAPL")
	suite.Assert().Equal(int64(10), pos.Quantity)
	suite.Assert().Equal(101.0, pos.AvgCost)
}

func (suite *LedgerTestSuite) TestBuyWithCommission() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 101, 1.5))

	suite.Assert().Equal(98_988.5, suite.ledger.Cash())
	suite.Assert().Equal(1.5, suite.ledger.TotalFees())
}

func (suite *LedgerTestSuite) TestWeightedAverageCostOnAdd() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 100, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 110, 0))

	pos := suite.ledger.Position("AAPL")
	suite.Assert().Equal(int64(20), pos.Quantity)
	suite.Assert().Equal(105.0, pos.AvgCost)
}

func (suite *LedgerTestSuite) TestSellCreditsCashAndRealizesPnL() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 100, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 4, 120, 0))

	// 100,000 - 1,000 + 480
	suite.Assert().Equal(99_480.0, suite.ledger.Cash())
	suite.Assert().Equal(80.0, suite.ledger.RealizedPnL())

	pos := suite.ledger.Position("AAPL")
	suite.Assert().Equal(int64(6), pos.Quantity)
	suite.Assert().Equal(100.0, pos.AvgCost)
}

func (suite *LedgerTestSuite) TestCloseRemovesPosition() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 100, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 10, 90, 0))

	suite.Assert().Equal(-100.0, suite.ledger.RealizedPnL())
	suite.Assert().Empty(suite.ledger.Positions())

	pos := suite.ledger.Position("AAPL")
	suite.Assert().True(pos.IsFlat())
	suite.Assert().Equal(0.0, pos.AvgCost)
}

func (suite *LedgerTestSuite) TestFlipThroughZero() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 100, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 15, 110, 0))

	// Realizes on the full 10 long units; the remaining 5 open short at 110.
	suite.Assert().Equal(100.0, suite.ledger.RealizedPnL())

	pos := suite.ledger.Position("AAPL")
	suite.Assert().Equal(int64(-5), pos.Quantity)
	suite.Assert().Equal(110.0, pos.AvgCost)
}

func (suite *LedgerTestSuite) TestShortCoverRealizesInvertedPnL() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 10, 100, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 90, 0))

	// Short sold at 100, covered at 90: a gain.
	suite.Assert().Equal(100.0, suite.ledger.RealizedPnL())
	suite.Assert().Empty(suite.ledger.Positions())
}

func (suite *LedgerTestSuite) TestWinRateCountsClosingFills() {
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 100, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 5, 110, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 5, 90, 0))

	suite.Assert().Equal(2, suite.ledger.TradesClosed())
	suite.Assert().Equal(0.5, suite.ledger.WinRate())
}

func (suite *LedgerTestSuite) TestWinRateZeroWithoutClosedTrades() {
	suite.Assert().Equal(0.0, suite.ledger.WinRate())
}

func (suite *LedgerTestSuite) TestPositionsSortedBySymbol() {
	suite.ledger.ApplyFill(suite.fill("MSFT", types.SideBuy, 1, 300, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 1, 100, 0))

	positions := suite.ledger.Positions()
	suite.Require().Len(positions, 2)
	suite.Assert().Equal("AAPL", positions[0].Symbol)
	suite.Assert().Equal("MSFT", positions[1].Symbol)
}

func (suite *LedgerTestSuite) TestValuationMarksAtLastClose() {
	prices := NewPriceContext()
	suite.Require().NoError(prices.Ingest(types.Bar{
		Symbol: "AAPL", Date: day(2), Open: 100, High: 106, Low: 99, Close: 105, Volume: 1000,
	}))

	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 10, 100, 0))

	// 99,000 cash + 10 * 105
	suite.Assert().Equal(100_050.0, suite.ledger.Valuation(prices).InexactFloat64())
}

func (suite *LedgerTestSuite) TestCashConservationUnderFractionalPrices() {
	// Prices that are awkward in binary floating point still conserve
	// cash exactly through a buy/sell round trip.
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideBuy, 3, 0.1, 0))
	suite.ledger.ApplyFill(suite.fill("AAPL", types.SideSell, 3, 0.1, 0))

	suite.Assert().True(suite.ledger.CashDecimal().Equal(NewLedger(100_000).CashDecimal()))
	suite.Assert().Equal(0.0, suite.ledger.RealizedPnL())
}
