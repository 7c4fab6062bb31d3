package engine

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

// holdStrategy buys a fixed quantity on the first bar and sells it on the
// final bar.
type holdStrategy struct {
	quantity float64
	total    int
}

func (h *holdStrategy) Name() string {
	return "hold"
}

func (h *holdStrategy) Generate(symbol string, history *series.Series) []types.Order {
	last, _ := history.Last()

	order := types.Order{
		Symbol:      symbol,
		Quantity:    h.quantity,
		Kind:        types.OrderKindMarket,
		RequestedAt: last.Time,
		Reason:      types.OrderReasonStrategy,
	}

	switch history.Len() {
	case 1:
		order.Side = types.SideBuy
	case h.total:
		order.Side = types.SideSell
	default:
		return nil
	}

	return []types.Order{order}
}

func rampBars(n int, start float64, step float64) []types.Bar {
	bars := make([]types.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		close := start + float64(i)*step
		bars[i] = types.Bar{
			Symbol: "AAPL",
			Time:   base.AddDate(0, 0, i),
			Open:   close - step/2,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000000,
		}
	}

	return bars
}

func noCostConfig() Config {
	config := DefaultConfig()
	config.CommissionParam = 0
	config.SlippageParam = 0

	return config
}

func (suite *EngineTestSuite) TestNewBacktestValidation() {
	suite.Run("Rejects nil strategy", func() {
		_, err := NewBacktest(noCostConfig(), nil, nil)
		suite.Require().Error(err)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	})

	suite.Run("Rejects invalid config", func() {
		config := noCostConfig()
		config.InitialCapital = -1

		_, err := NewBacktest(config, &holdStrategy{quantity: 1, total: 1}, nil)
		suite.Require().Error(err)
	})
}

func (suite *EngineTestSuite) TestRunRejectsEmptyHistory() {
	backtest, err := NewBacktest(noCostConfig(), &holdStrategy{quantity: 1, total: 1}, nil)
	suite.Require().NoError(err)

	_, err = backtest.Run(nil, optional.None[OnBarCallback]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataUnavailable))
}

func (suite *EngineTestSuite) TestBuyAndSellRoundTrip() {
	bars := rampBars(10, 100, 1)
	hist := series.NewSorted(bars)

	backtest, err := NewBacktest(noCostConfig(), &holdStrategy{quantity: 100, total: 10}, nil)
	suite.Require().NoError(err)

	result, err := backtest.Run(hist, optional.None[OnBarCallback]())
	suite.Require().NoError(err)

	// Bought at 100, sold at 109: 100 shares make 900.
	suite.Require().Len(result.Trades, 1)
	suite.InDelta(900.0, result.Trades[0].PnL, 1e-6)
	suite.InDelta(100900.0, result.Summary.FinalValue, 1e-6)
	suite.Equal(1, result.Summary.TotalTrades)
	suite.Empty(result.OpenPositions)

	// One equity sample per bar, strictly ordered.
	suite.Require().Len(result.EquityCurve, len(bars))
	for i := 1; i < len(result.EquityCurve); i++ {
		suite.True(result.EquityCurve[i].Time.After(result.EquityCurve[i-1].Time))
	}
}

func (suite *EngineTestSuite) TestDeterministicAcrossRuns() {
	bars := rampBars(30, 100, 0.5)

	run := func() *Result {
		hist := series.NewSorted(bars)

		backtest, err := NewBacktest(noCostConfig(), &holdStrategy{quantity: 50, total: 30}, nil)
		suite.Require().NoError(err)

		result, err := backtest.Run(hist, optional.None[OnBarCallback]())
		suite.Require().NoError(err)

		return result
	}

	first := run()
	second := run()

	suite.Equal(first.Summary.FinalValue, second.Summary.FinalValue)
	suite.Equal(first.Summary.SharpeRatio, second.Summary.SharpeRatio)
	suite.Equal(first.EquityCurve, second.EquityCurve)
}

func (suite *EngineTestSuite) TestUnaffordableOrdersAreSkippedNotFatal() {
	bars := rampBars(5, 100, 1)
	hist := series.NewSorted(bars)

	config := noCostConfig()
	config.InitialCapital = 1000

	// 100 shares at ~100 needs 10000, far beyond the 1000 of capital.
	backtest, err := NewBacktest(config, &holdStrategy{quantity: 100, total: 5}, nil)
	suite.Require().NoError(err)

	result, err := backtest.Run(hist, optional.None[OnBarCallback]())
	suite.Require().NoError(err)
	suite.Empty(result.Trades)
	suite.InDelta(1000.0, result.Summary.FinalValue, 1e-9)
}

func (suite *EngineTestSuite) TestProgressCallback() {
	bars := rampBars(7, 100, 1)
	hist := series.NewSorted(bars)

	backtest, err := NewBacktest(noCostConfig(), &holdStrategy{quantity: 1, total: 7}, nil)
	suite.Require().NoError(err)

	var calls []int

	callback := OnBarCallback(func(current int, total int) {
		suite.Equal(7, total)
		calls = append(calls, current)
	})

	_, err = backtest.Run(hist, optional.Some(callback))
	suite.Require().NoError(err)
	suite.Equal([]int{1, 2, 3, 4, 5, 6, 7}, calls)
}

func (suite *EngineTestSuite) TestBuyAndHoldBenchmark() {
	bars := rampBars(10, 100, 1)
	hist := series.NewSorted(bars)

	backtest, err := NewBacktest(noCostConfig(), &holdStrategy{quantity: 0.0001, total: 0}, nil)
	suite.Require().NoError(err)

	result, err := backtest.Run(hist, optional.None[OnBarCallback]())
	suite.Require().NoError(err)

	// 100 -> 109 on 100000 of capital.
	suite.InDelta(9000.0, result.Summary.BuyAndHoldPnL, 1e-6)
}

func (suite *EngineTestSuite) TestSMACrossIntegration() {
	// A decline followed by a strong rally forces the fast average through
	// the slow one at least once in each direction.
	var bars []types.Bar

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0

	for i := 0; i < 60; i++ {
		if i < 25 {
			price -= 0.8
		} else {
			price += 1.2
		}

		bars = append(bars, types.Bar{
			Symbol: "AAPL",
			Time:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000000,
		})
	}

	strat, err := strategy.New("sma_cross", strategy.Params{
		"fast_period": 3,
		"slow_period": 10,
		"quantity":    100,
	})
	suite.Require().NoError(err)

	backtest, err := NewBacktest(noCostConfig(), strat, nil)
	suite.Require().NoError(err)

	result, err := backtest.Run(series.NewSorted(bars), optional.None[OnBarCallback]())
	suite.Require().NoError(err)
	suite.NotEmpty(result.EquityCurve)
	suite.GreaterOrEqual(result.Summary.TotalTrades+len(result.OpenPositions), 1)
}
