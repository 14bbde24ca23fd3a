package commission

// PerShare charges a fee per share with a minimum per fill, the shape most
// retail brokers use.
type PerShare struct {
	rate    float64
	minimum float64
}

// NewPerShare creates a per-share policy charging rate per share, never
// less than minimum per fill.
func NewPerShare(rate float64, minimum float64) Policy {
	return &PerShare{rate: rate, minimum: minimum}
}

func (p *PerShare) Calculate(quantity int64, price float64) float64 {
	fee := p.rate * float64(quantity)
	if fee < p.minimum {
		return p.minimum
	}

	return fee
}
