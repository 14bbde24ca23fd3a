package engine

import (
	"time"

	"barsim/internal/types"
	"barsim/pkg/errors"
)

// OrderBook owns every order created during a run. Orders live in an
// append-only arena indexed by their monotonic ID; per-symbol FIFO queues
// hold the IDs of pending orders, never the orders themselves.
type OrderBook struct {
	arena  []types.Order
	queues map[string][]int64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		arena:  nil,
		queues: make(map[string][]int64),
	}
}

// Add creates a PENDING order in the arena and enqueues its ID on the
// symbol's queue. IDs are assigned monotonically starting at 1.
func (ob *OrderBook) Add(symbol string, side types.Side, quantity int64, submittedAt time.Time) types.Order {
	order := types.Order{
		ID:          int64(len(ob.arena)) + 1,
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		SubmittedAt: types.DateOf(submittedAt),
		State:       types.OrderStatePending,
	}

	ob.arena = append(ob.arena, order)
	ob.queues[symbol] = append(ob.queues[symbol], order.ID)

	return order
}

// Get returns the order with the given ID.
func (ob *OrderBook) Get(id int64) (types.Order, bool) {
	if id < 1 || id > int64(len(ob.arena)) {
		return types.Order{}, false
	}

	return ob.arena[id-1], true
}

// PopEligible removes and returns the IDs of the symbol's pending orders
// submitted strictly before date, in FIFO order. Submission dates within a
// queue are non-decreasing, so the eligible orders form the queue's front.
func (ob *OrderBook) PopEligible(symbol string, date time.Time) []int64 {
	queue := ob.queues[symbol]

	n := 0
	for n < len(queue) {
		order := ob.arena[queue[n]-1]
		if !order.SubmittedAt.Before(date) {
			break
		}

		n++
	}

	if n == 0 {
		return nil
	}

	eligible := make([]int64, n)
	copy(eligible, queue[:n])
	ob.queues[symbol] = queue[n:]

	return eligible
}

// SetState transitions an order to a new state.
func (ob *OrderBook) SetState(id int64, state types.OrderState) {
	if id < 1 || id > int64(len(ob.arena)) {
		return
	}

	ob.arena[id-1].State = state
}

// Cancel flips a pending order to CANCELLED and removes it from its queue.
func (ob *OrderBook) Cancel(id int64) error {
	order, ok := ob.Get(id)
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "no order with id %d", id)
	}

	if order.State != types.OrderStatePending {
		return errors.Newf(errors.ErrCodeInvalidOrder, "order %d is %s, not pending", id, order.State)
	}

	queue := ob.queues[order.Symbol]
	for i, queued := range queue {
		if queued == id {
			ob.queues[order.Symbol] = append(queue[:i:i], queue[i+1:]...)

			break
		}
	}

	ob.arena[id-1].State = types.OrderStateCancelled

	return nil
}

// PendingCount returns the number of orders waiting on the symbol's queue.
func (ob *OrderBook) PendingCount(symbol string) int {
	return len(ob.queues[symbol])
}

// Orders returns a copy of every order created during the run, in ID order.
func (ob *OrderBook) Orders() []types.Order {
	out := make([]types.Order, len(ob.arena))
	copy(out, ob.arena)

	return out
}
