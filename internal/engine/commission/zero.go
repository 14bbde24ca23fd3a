package commission

// Zero implements Policy with no commission. This is the engine default.
type Zero struct{}

// NewZero creates a new zero commission policy.
func NewZero() Policy {
	return &Zero{}
}

// Calculate returns 0 for any fill.
func (z *Zero) Calculate(quantity int64, price float64) float64 {
	return 0.0
}
