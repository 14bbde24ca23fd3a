// Package commission defines the commission policy hook applied to every
// fill. The matching core only knows the Policy interface; slippage or
// tiered models would slot in the same way.
package commission

type Policy interface {
	// Calculate returns the commission charged for a fill of the given
	// quantity at the given price, in currency units.
	Calculate(quantity int64, price float64) float64
}

type PolicyName string

const (
	PolicyZero     PolicyName = "zero"
	PolicyFlat     PolicyName = "flat"
	PolicyPerShare PolicyName = "per_share"
)

var AllPolicies = []any{
	PolicyZero,
	PolicyFlat,
	PolicyPerShare,
}

// GetPolicy returns the policy for the given name. The rate parameter is
// the flat fee per fill for PolicyFlat and the fee per share for
// PolicyPerShare; it is ignored for PolicyZero. Unknown names fall back to
// zero commission, the engine default.
func GetPolicy(name PolicyName, rate float64) Policy {
	switch name {
	case PolicyFlat:
		return NewFlat(rate)
	case PolicyPerShare:
		return NewPerShare(rate, 1.0)
	case PolicyZero:
		return NewZero()
	default:
		return NewZero()
	}
}
