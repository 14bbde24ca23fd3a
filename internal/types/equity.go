package types

import "time"

// EquityPoint is one end-of-day snapshot of total portfolio value:
// cash plus every position marked at its symbol's last known price.
// Points are strictly date-ordered and never revised once appended.
type EquityPoint struct {
	Date   time.Time `yaml:"date" json:"date" csv:"date"`
	Equity float64   `yaml:"equity" json:"equity" csv:"equity"`
}
