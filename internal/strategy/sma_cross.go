package strategy

import (
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// SMACross goes long when the fast moving average crosses above the slow
// one and exits (or flips short) on the opposite cross. Orders are emitted
// only on the crossing bar.
type SMACross struct {
	fastPeriod int
	slowPeriod int
	quantity   float64
}

// NewSMACross builds the strategy from params fast_period, slow_period and
// quantity.
func NewSMACross(params Params) (Strategy, error) {
	fast := int(params.Get("fast_period", 10))
	slow := int(params.Get("slow_period", 30))
	quantity := params.Get("quantity", 10)

	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"sma_cross requires 0 < fast_period < slow_period, got %d/%d", fast, slow)
	}

	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"sma_cross quantity must be positive, got %f", quantity)
	}

	return &SMACross{fastPeriod: fast, slowPeriod: slow, quantity: quantity}, nil
}

// Name implements Strategy.
func (s *SMACross) Name() string {
	return "sma_cross"
}

// Generate implements Strategy.
func (s *SMACross) Generate(symbol string, history *series.Series) []types.Order {
	n := history.Len()
	if n < s.slowPeriod+1 {
		return nil
	}

	closes := history.Closes()

	fastNow := sma(closes, s.fastPeriod)
	slowNow := sma(closes, s.slowPeriod)
	fastPrev := sma(closes[:n-1], s.fastPeriod)
	slowPrev := sma(closes[:n-1], s.slowPeriod)

	last := history.At(n - 1)

	var side types.Side

	switch {
	case fastPrev <= slowPrev && fastNow > slowNow:
		side = types.SideBuy
	case fastPrev >= slowPrev && fastNow < slowNow:
		side = types.SideSell
	default:
		return nil
	}

	return []types.Order{{
		Symbol:      symbol,
		Side:        side,
		Quantity:    s.quantity,
		Kind:        types.OrderKindMarket,
		RequestedAt: last.Time,
		Reason:      types.OrderReasonStrategy,
	}}
}

// sma returns the simple moving average of the trailing period values.
func sma(values []float64, period int) float64 {
	if len(values) < period || period <= 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}

	return sum / float64(period)
}
