package strategy

import (
	"sort"

	"barsim/pkg/errors"
)

// Registry maps strategy names to constructors so the harness can look
// strategies up by name.
type Registry struct {
	factories map[string]func() Strategy
}

// NewRegistry creates a registry preloaded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]func() Strategy)}

	r.Register("sma_crossover", func() Strategy { return NewSMACrossover() })
	r.Register("buy_and_hold", func() Strategy { return NewBuyAndHold() })

	return r
}

// Register adds a strategy constructor under a name.
func (r *Registry) Register(name string, factory func() Strategy) {
	r.factories[name] = factory
}

// Get constructs a fresh instance of the named strategy.
func (r *Registry) Get(name string) (Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy %q", name)
	}

	return factory(), nil
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
