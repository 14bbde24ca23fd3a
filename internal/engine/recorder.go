package engine

import (
	"time"

	"barsim/internal/types"
	"barsim/pkg/errors"
)

// EquityRecorder appends one equity snapshot per closed trading day. Points
// are strictly date-ordered and never revised.
type EquityRecorder struct {
	points []types.EquityPoint
	closed map[time.Time]struct{}
}

func NewEquityRecorder() *EquityRecorder {
	return &EquityRecorder{
		points: nil,
		closed: make(map[time.Time]struct{}),
	}
}

// Record appends the equity point for date and marks the date closed.
// Reclosing a date, or closing one at or before the last closed date,
// fails: the snapshot sequence is append-only by construction.
func (r *EquityRecorder) Record(date time.Time, equity float64) (types.EquityPoint, error) {
	date = types.DateOf(date)

	if _, done := r.closed[date]; done {
		return types.EquityPoint{}, errors.Newf(errors.ErrCodeSequencing,
			"equity already recorded for %s", date.Format(time.DateOnly))
	}

	if n := len(r.points); n > 0 && !date.After(r.points[n-1].Date) {
		return types.EquityPoint{}, errors.Newf(errors.ErrCodeSequencing,
			"equity date %s is not after last recorded date %s",
			date.Format(time.DateOnly), r.points[n-1].Date.Format(time.DateOnly))
	}

	point := types.EquityPoint{Date: date, Equity: equity}
	r.points = append(r.points, point)
	r.closed[date] = struct{}{}

	return point, nil
}

// Points returns a copy of the recorded equity series in date order.
func (r *EquityRecorder) Points() []types.EquityPoint {
	out := make([]types.EquityPoint, len(r.points))
	copy(out, r.points)

	return out
}

// Len returns the number of closed trading days.
func (r *EquityRecorder) Len() int {
	return len(r.points)
}
