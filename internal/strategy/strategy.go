// Package strategy defines the signal-generator contract and the built-in
// strategies selectable by configuration.
package strategy

import (
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Strategy maps (symbol, history so far) to intended orders. It is called
// once per symbol per bar and must be side-effect-free with respect to the
// engine's state: the same history always yields the same orders.
type Strategy interface {
	Name() string
	Generate(symbol string, history *series.Series) []types.Order
}

// Params is the bounded parameter set a strategy is built from. The
// walk-forward optimizer searches over these values.
type Params map[string]float64

// Get returns the named parameter or the fallback when absent.
func (p Params) Get(name string, fallback float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}

	return fallback
}

// Factory builds a strategy from a parameter set.
type Factory func(params Params) (Strategy, error)

var registry = map[string]Factory{
	"sma_cross":      NewSMACross,
	"mean_reversion": NewMeanReversion,
}

// New builds a registered strategy by name.
func New(name string, params Params) (Strategy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy %q", name)
	}

	return factory(params)
}

// Names returns the registered strategy names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}
