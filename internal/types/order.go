package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"barsim/pkg/errors"
)

type Side string

type OrderState string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderStatePending   OrderState = "PENDING"
	OrderStateFilled    OrderState = "FILLED"
	OrderStateRejected  OrderState = "REJECTED"
	OrderStateCancelled OrderState = "CANCELLED"
)

// Sign returns +1 for a buy and -1 for a sell, the direction the side moves
// a position's quantity.
func (s Side) Sign() int64 {
	if s == SideSell {
		return -1
	}

	return 1
}

// Order is a market order submitted by the strategy. Orders live in the
// order book's arena, referenced by their monotonic ID, until they reach a
// terminal state.
type Order struct {
	ID     int64  `yaml:"id" json:"id" csv:"id"`
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side   Side   `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	// Quantity is always positive; the side carries the direction.
	Quantity int64 `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	// SubmittedAt is the trading date the order was placed on. Orders are
	// never eligible for matching on their submission date.
	SubmittedAt time.Time  `yaml:"submitted_at" json:"submitted_at" csv:"submitted_at" validate:"required"`
	State       OrderState `yaml:"state" json:"state" csv:"state"`
}

// IsTerminal reports whether the order can no longer change state.
func (o *Order) IsTerminal() bool {
	return o.State == OrderStateFilled || o.State == OrderStateRejected || o.State == OrderStateCancelled
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()

	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Fill is the executed quantity of an order at a price and date. Fills are
// append-only; with full-fill matching every order produces at most one.
type Fill struct {
	OrderID    int64     `yaml:"order_id" json:"order_id" csv:"order_id"`
	Symbol     string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side       Side      `yaml:"side" json:"side" csv:"side"`
	Quantity   int64     `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price      float64   `yaml:"price" json:"price" csv:"price"`
	Date       time.Time `yaml:"date" json:"date" csv:"date"`
	Commission float64   `yaml:"commission" json:"commission" csv:"commission"`
}
