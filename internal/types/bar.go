package types

import "time"

// Bar is one trading day's OHLCV summary for a symbol. Bars are immutable
// once ingested; per symbol the engine requires strictly increasing dates.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Date   time.Time `yaml:"date" json:"date" csv:"date" validate:"required"`
	Open   float64   `yaml:"open" json:"open" csv:"open" validate:"gt=0"`
	High   float64   `yaml:"high" json:"high" csv:"high" validate:"gt=0"`
	Low    float64   `yaml:"low" json:"low" csv:"low" validate:"gt=0"`
	Close  float64   `yaml:"close" json:"close" csv:"close" validate:"gt=0"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume" validate:"gte=0"`
}

// DateOf normalizes a timestamp to its trading date: midnight UTC.
// All date comparisons inside the engine happen on normalized dates.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same trading date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
