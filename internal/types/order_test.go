package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"barsim/pkg/errors"
)

// OrderTestSuite is a test suite for Order
type OrderTestSuite struct {
	suite.Suite
}

// TestOrderTestSuite runs the test suite
func TestOrderTestSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func validOrder() Order {
	return Order{
		ID:          1,
		Symbol:      "AAPL",
		Side:        SideBuy,
		Quantity:    10,
		SubmittedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		State:       OrderStatePending,
	}
}

func (suite *OrderTestSuite) TestValidateAcceptsWellFormedOrder() {
	order := validOrder()
	suite.Assert().NoError(order.Validate())
}

func (suite *OrderTestSuite) TestValidateRejectsMissingSymbol() {
	order := validOrder()
	order.Symbol = ""

	err := order.Validate()
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
}

func (suite *OrderTestSuite) TestValidateRejectsBadSide() {
	order := validOrder()
	order.Side = "HOLD"

	suite.Assert().Error(order.Validate())
}

func (suite *OrderTestSuite) TestValidateRejectsNonPositiveQuantity() {
	order := validOrder()
	order.Quantity = 0
	suite.Assert().Error(order.Validate())

	order.Quantity = -5
	suite.Assert().Error(order.Validate())
}

func (suite *OrderTestSuite) TestSideSign() {
	suite.Assert().Equal(int64(1), SideBuy.Sign())
	suite.Assert().Equal(int64(-1), SideSell.Sign())
}

func (suite *OrderTestSuite) TestIsTerminal() {
	order := validOrder()
	suite.Assert().False(order.IsTerminal())

	for _, state := range []OrderState{OrderStateFilled, OrderStateRejected, OrderStateCancelled} {
		order.State = state
		suite.Assert().True(order.IsTerminal())
	}
}

func (suite *OrderTestSuite) TestDateOf() {
	ts := time.Date(2024, 3, 15, 14, 30, 45, 123, time.FixedZone("EST", -5*3600))
	normalized := DateOf(ts)

	suite.Assert().Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), normalized)
	suite.Assert().Equal(time.UTC, normalized.Location())
	suite.Assert().True(SameDate(ts, ts.Add(time.Hour)))
}
