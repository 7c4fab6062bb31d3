// Package analyzer derives risk-adjusted performance statistics from an
// equity curve and a trade log. Every function is pure: same inputs, same
// outputs, no hidden state. Degenerate inputs (flat curves, zero trades)
// resolve to zero statistics, never errors.
package analyzer

import "math"

// Metrics is the full set of statistics derived from one equity curve and
// trade log.
type Metrics struct {
	TotalReturn      float64
	AnnualizedReturn float64
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64
	WinRate          float64
	NumPeriods       int
}

// Returns computes the simple period-over-period percentage change of the
// equity values. A value of zero in the curve contributes a zero return to
// avoid dividing by zero.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(values)-1)

	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, values[i]/values[i-1]-1)
	}

	return returns
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation, 0 when fewer than 2 values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := Mean(values)
	sumSq := 0.0

	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)-1))
}

// SharpeRatio annualizes mean return over return volatility. Resolves to 0
// when the return series has zero variance.
func SharpeRatio(returns []float64, periodsPerYear int) float64 {
	stdev := StdDev(returns)
	if stdev == 0 {
		return 0
	}

	return math.Sqrt(float64(periodsPerYear)) * Mean(returns) / stdev
}

// SortinoRatio uses only downside volatility in the denominator. Resolves
// to 0 when fewer than 2 negative returns exist.
func SortinoRatio(returns []float64, periodsPerYear int) float64 {
	var downside []float64

	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	if len(downside) < 2 {
		return 0
	}

	stdev := StdDev(downside)
	if stdev == 0 {
		return 0
	}

	return math.Sqrt(float64(periodsPerYear)) * Mean(returns) / stdev
}

// MaxDrawdown returns the deepest peak-to-trough decline of the equity
// values as a negative fraction. A monotonically rising curve yields 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0

	for _, v := range values {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// TotalReturn is final over initial minus one. Zero when initial is zero.
func TotalReturn(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}

	return final/initial - 1
}

// AnnualizedReturn scales the total growth to a yearly rate over numPeriods
// observations.
func AnnualizedReturn(initial, final float64, periodsPerYear, numPeriods int) float64 {
	if initial <= 0 || final <= 0 || numPeriods == 0 {
		return 0
	}

	return math.Pow(final/initial, float64(periodsPerYear)/float64(numPeriods)) - 1
}

// WinRate is the fraction of trades with positive P&L. Zero trades yields
// 0, not an error.
func WinRate(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}

	wins := 0

	for _, pnl := range pnls {
		if pnl > 0 {
			wins++
		}
	}

	return float64(wins) / float64(len(pnls))
}

// Analyze derives the full metric set from equity values and trade P&Ls.
func Analyze(equityValues []float64, tradePnLs []float64, initialCapital float64, periodsPerYear int) Metrics {
	if len(equityValues) == 0 {
		return Metrics{}
	}

	final := equityValues[len(equityValues)-1]
	returns := Returns(equityValues)

	return Metrics{
		TotalReturn:      TotalReturn(initialCapital, final),
		AnnualizedReturn: AnnualizedReturn(initialCapital, final, periodsPerYear, len(returns)),
		SharpeRatio:      SharpeRatio(returns, periodsPerYear),
		SortinoRatio:     SortinoRatio(returns, periodsPerYear),
		MaxDrawdown:      MaxDrawdown(equityValues),
		WinRate:          WinRate(tradePnLs),
		NumPeriods:       len(returns),
	}
}
