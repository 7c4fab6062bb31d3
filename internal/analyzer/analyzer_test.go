package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AnalyzerTestSuite struct {
	suite.Suite
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerTestSuite))
}

func (suite *AnalyzerTestSuite) TestReturns() {
	tests := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{
			name:     "Simple growth",
			values:   []float64{100, 110, 99},
			expected: []float64{0.1, -0.1},
		},
		{
			name:     "Single value",
			values:   []float64{100},
			expected: nil,
		},
		{
			name:     "Empty",
			values:   nil,
			expected: nil,
		},
		{
			name:     "Zero value contributes zero return",
			values:   []float64{0, 100},
			expected: []float64{0},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			result := Returns(tt.values)
			suite.Require().Len(result, len(tt.expected))

			for i := range tt.expected {
				suite.InDelta(tt.expected[i], result[i], 1e-9)
			}
		})
	}
}

func (suite *AnalyzerTestSuite) TestMeanAndStdDev() {
	suite.Run("Mean of empty is zero", func() {
		suite.Equal(0.0, Mean(nil))
	})

	suite.Run("Mean of values", func() {
		suite.InDelta(2.0, Mean([]float64{1, 2, 3}), 1e-9)
	})

	suite.Run("StdDev needs two values", func() {
		suite.Equal(0.0, StdDev([]float64{5}))
	})

	suite.Run("Sample standard deviation", func() {
		// Variance of {2, 4, 4, 4, 5, 5, 7, 9} with n-1 is 32/7.
		suite.InDelta(math.Sqrt(32.0/7.0), StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	})
}

func (suite *AnalyzerTestSuite) TestSharpeRatio() {
	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{
			name:     "Zero variance resolves to zero",
			returns:  []float64{0.01, 0.01, 0.01},
			expected: 0,
		},
		{
			name:     "Empty resolves to zero",
			returns:  nil,
			expected: 0,
		},
		{
			name:    "Known series",
			returns: []float64{0.01, -0.01, 0.02},
			expected: math.Sqrt(252) * Mean([]float64{0.01, -0.01, 0.02}) /
				StdDev([]float64{0.01, -0.01, 0.02}),
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, SharpeRatio(tt.returns, 252), 1e-9)
		})
	}
}

func (suite *AnalyzerTestSuite) TestSortinoRatio() {
	suite.Run("Fewer than two downside returns resolves to zero", func() {
		suite.Equal(0.0, SortinoRatio([]float64{0.01, 0.02, -0.01}, 252))
	})

	suite.Run("Uses only downside volatility", func() {
		returns := []float64{0.02, -0.01, 0.03, -0.03}
		downside := []float64{-0.01, -0.03}
		expected := math.Sqrt(252) * Mean(returns) / StdDev(downside)
		suite.InDelta(expected, SortinoRatio(returns, 252), 1e-9)
	})
}

func (suite *AnalyzerTestSuite) TestMaxDrawdown() {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{
			name:     "Monotonic rise has no drawdown",
			values:   []float64{100, 110, 120},
			expected: 0,
		},
		{
			name:     "Single trough",
			values:   []float64{100, 120, 90, 130},
			expected: -0.25,
		},
		{
			name:     "Empty",
			values:   nil,
			expected: 0,
		},
		{
			name:     "Deepest of two troughs wins",
			values:   []float64{100, 80, 110, 55},
			expected: -0.5,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, MaxDrawdown(tt.values), 1e-9)
		})
	}
}

func (suite *AnalyzerTestSuite) TestAnnualizedReturn() {
	suite.Run("Zero periods resolves to zero", func() {
		suite.Equal(0.0, AnnualizedReturn(100, 110, 252, 0))
	})

	suite.Run("One year of growth is the total return", func() {
		suite.InDelta(0.10, AnnualizedReturn(100, 110, 252, 252), 1e-9)
	})

	suite.Run("Half a year compounds up", func() {
		suite.InDelta(math.Pow(1.10, 2)-1, AnnualizedReturn(100, 110, 252, 126), 1e-9)
	})
}

func (suite *AnalyzerTestSuite) TestWinRate() {
	tests := []struct {
		name     string
		pnls     []float64
		expected float64
	}{
		{
			name:     "No trades resolves to zero",
			pnls:     nil,
			expected: 0,
		},
		{
			name:     "Breakeven trades do not count as wins",
			pnls:     []float64{10, 0, -5, 20},
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, WinRate(tt.pnls), 1e-9)
		})
	}
}

func (suite *AnalyzerTestSuite) TestAnalyze() {
	suite.Run("Empty curve yields zero metrics", func() {
		suite.Equal(Metrics{}, Analyze(nil, nil, 100000, 252))
	})

	suite.Run("Flat curve yields zero statistics without error", func() {
		metrics := Analyze([]float64{100000, 100000, 100000}, nil, 100000, 252)
		suite.Equal(0.0, metrics.TotalReturn)
		suite.Equal(0.0, metrics.SharpeRatio)
		suite.Equal(0.0, metrics.SortinoRatio)
		suite.Equal(0.0, metrics.MaxDrawdown)
		suite.Equal(2, metrics.NumPeriods)
	})

	suite.Run("Same inputs give same outputs", func() {
		values := []float64{100000, 101000, 99500, 102000}
		pnls := []float64{500, -200}

		first := Analyze(values, pnls, 100000, 252)
		second := Analyze(values, pnls, 100000, 252)

		suite.Equal(first, second)
	})
}
