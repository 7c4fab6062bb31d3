// Package optimizer provides the inner parameter search and the
// walk-forward driver that wraps the simulation pipeline.
package optimizer

import (
	"math"

	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/pkg/errors"
)

// ParamRange is one bounded axis of the parameter box searched by the grid
// optimizer.
type ParamRange struct {
	Name string  `yaml:"name" json:"name"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

// Objective scores one candidate parameter set. Higher is better.
// Candidates that cannot be evaluated return an error and are skipped.
type Objective func(params strategy.Params) (float64, error)

// GridSearch exhaustively evaluates the cartesian product of its parameter
// ranges in a deterministic order.
type GridSearch struct {
	ranges []ParamRange
}

// NewGridSearch validates the parameter box. Bounds with Min > Max or a
// non-positive Step are configuration errors.
func NewGridSearch(ranges []ParamRange) (*GridSearch, error) {
	if len(ranges) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidBounds, "no parameter ranges given")
	}

	for _, r := range ranges {
		if r.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidBounds, "parameter range without name")
		}

		if r.Step <= 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidBounds,
				"parameter %q step must be positive, got %f", r.Name, r.Step)
		}

		if r.Min > r.Max {
			return nil, errors.Newf(errors.ErrCodeInvalidBounds,
				"parameter %q has min %f > max %f", r.Name, r.Min, r.Max)
		}
	}

	return &GridSearch{ranges: ranges}, nil
}

// Optimize returns the parameter set maximizing the objective. Candidates
// whose objective errors are skipped; if every candidate fails the search
// reports ErrCodeOptimizationFailure.
func (g *GridSearch) Optimize(objective Objective) (strategy.Params, float64, error) {
	best := strategy.Params(nil)
	bestScore := math.Inf(-1)

	current := make(strategy.Params, len(g.ranges))

	var walk func(axis int)

	walk = func(axis int) {
		if axis == len(g.ranges) {
			candidate := make(strategy.Params, len(current))
			for k, v := range current {
				candidate[k] = v
			}

			score, err := objective(candidate)
			if err != nil {
				return
			}

			if score > bestScore {
				bestScore = score
				best = candidate
			}

			return
		}

		r := g.ranges[axis]
		for v := r.Min; v <= r.Max+r.Step/2; v += r.Step {
			current[r.Name] = v
			walk(axis + 1)
		}
	}

	walk(0)

	if best == nil {
		return nil, 0, errors.Newf(errors.ErrCodeOptimizationFailure,
			"no candidate in the parameter box could be evaluated (%d axes)", len(g.ranges))
	}

	return best, bestScore, nil
}
