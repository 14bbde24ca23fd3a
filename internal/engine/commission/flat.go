package commission

// Flat charges a fixed fee per fill regardless of size.
type Flat struct {
	amount float64
}

// NewFlat creates a flat-fee policy charging amount per fill.
func NewFlat(amount float64) Policy {
	return &Flat{amount: amount}
}

func (f *Flat) Calculate(quantity int64, price float64) float64 {
	return f.amount
}
