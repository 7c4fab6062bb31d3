// Package commission provides the closed set of commission models applied
// to fills. Models are tagged variants selected by configuration, keeping
// simulation runs deterministic and serializable.
package commission

// Model computes the commission in dollars for a fill. The fee is always
// computed from the filled price and quantity, never the requested price.
type Model interface {
	Calculate(quantity float64, fillPrice float64) float64
}

type ModelType string

const (
	ModelFlat     ModelType = "flat"
	ModelPerShare ModelType = "per_share"
	ModelPercent  ModelType = "percent"
)

var AllModels = []any{
	ModelFlat,
	ModelPerShare,
	ModelPercent,
}

// GetModel returns the commission model for the given type and parameter.
// Unknown types fall back to a zero percent model.
func GetModel(modelType ModelType, param float64) Model {
	switch modelType {
	case ModelFlat:
		return NewFlat(param)
	case ModelPerShare:
		return NewPerShare(param)
	case ModelPercent:
		return NewPercent(param)
	default:
		return NewPercent(0)
	}
}
