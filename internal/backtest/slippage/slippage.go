// Package slippage provides the closed set of slippage models used by the
// execution simulator. The adjusted price always moves against the trader:
// up for buys, down for sells.
package slippage

import "github.com/quantfold/quantfold/internal/types"

// Model shifts a quoted price to the achieved fill price. The bar supplies
// volume context for impact models.
type Model interface {
	Apply(quoted float64, side types.Side, quantity float64, bar types.Bar) float64
}

type ModelType string

const (
	ModelFixedBps     ModelType = "fixed_bps"
	ModelVolumeImpact ModelType = "volume_impact"
	ModelSpread       ModelType = "spread"
)

var AllModels = []any{
	ModelFixedBps,
	ModelVolumeImpact,
	ModelSpread,
}

// GetModel returns the slippage model for the given type and parameter.
// Unknown types fall back to zero fixed bps.
func GetModel(modelType ModelType, param float64) Model {
	switch modelType {
	case ModelFixedBps:
		return NewFixedBps(param)
	case ModelVolumeImpact:
		return NewVolumeImpact(param)
	case ModelSpread:
		return NewSpread(param)
	default:
		return NewFixedBps(0)
	}
}

// adjust moves price by fraction against the trader's side.
func adjust(quoted float64, side types.Side, fraction float64) float64 {
	if side == types.SideSell {
		return quoted * (1 - fraction)
	}

	return quoted * (1 + fraction)
}
