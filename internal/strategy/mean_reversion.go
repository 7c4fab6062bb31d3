package strategy

import (
	"math"

	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// MeanReversion buys when price drops more than threshold standard
// deviations below its trailing mean and sells when it rises the same
// distance above.
type MeanReversion struct {
	period    int
	threshold float64
	quantity  float64
}

// NewMeanReversion builds the strategy from params period, threshold and
// quantity.
func NewMeanReversion(params Params) (Strategy, error) {
	period := int(params.Get("period", 20))
	threshold := params.Get("threshold", 2)
	quantity := params.Get("quantity", 10)

	if period < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"mean_reversion period must be at least 2, got %d", period)
	}

	if threshold <= 0 || quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"mean_reversion threshold and quantity must be positive")
	}

	return &MeanReversion{period: period, threshold: threshold, quantity: quantity}, nil
}

// Name implements Strategy.
func (m *MeanReversion) Name() string {
	return "mean_reversion"
}

// Generate implements Strategy.
func (m *MeanReversion) Generate(symbol string, history *series.Series) []types.Order {
	n := history.Len()
	if n < m.period {
		return nil
	}

	closes := history.Closes()
	window := closes[n-m.period:]

	mean := 0.0
	for _, v := range window {
		mean += v
	}

	mean /= float64(m.period)

	variance := 0.0
	for _, v := range window {
		d := v - mean
		variance += d * d
	}

	stdev := 0.0
	if m.period > 1 {
		variance /= float64(m.period - 1)
	}

	if variance > 0 {
		stdev = math.Sqrt(variance)
	}

	if stdev == 0 {
		return nil
	}

	last := history.At(n - 1)
	z := (last.Close - mean) / stdev

	var side types.Side

	switch {
	case z < -m.threshold:
		side = types.SideBuy
	case z > m.threshold:
		side = types.SideSell
	default:
		return nil
	}

	return []types.Order{{
		Symbol:      symbol,
		Side:        side,
		Quantity:    m.quantity,
		Kind:        types.OrderKindMarket,
		RequestedAt: last.Time,
		Reason:      types.OrderReasonStrategy,
	}}
}
