package types

// Position represents current holdings of a symbol. Quantity is signed:
// positive for long, negative for short (shorts only exist when the margin
// policy allows them).
type Position struct {
	Symbol   string  `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity int64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	AvgCost  float64 `yaml:"avg_cost" json:"avg_cost" csv:"avg_cost"`
}

// IsFlat reports whether the position holds no quantity.
func (p Position) IsFlat() bool {
	return p.Quantity == 0
}

// Direction returns +1 for long, -1 for short and 0 for flat.
func (p Position) Direction() int64 {
	switch {
	case p.Quantity > 0:
		return 1
	case p.Quantity < 0:
		return -1
	default:
		return 0
	}
}
