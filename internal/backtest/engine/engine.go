// Package engine runs deterministic bar-replay simulations: bars are
// processed strictly in timestamp order, fills happen synchronously within
// the step that generated the order, and no I/O occurs once history has
// been loaded.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/analyzer"
	"github.com/quantfold/quantfold/internal/backtest/commission"
	"github.com/quantfold/quantfold/internal/backtest/ledger"
	"github.com/quantfold/quantfold/internal/backtest/slippage"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

// OnBarCallback reports progress through the bar loop.
type OnBarCallback func(current int, total int)

// Result is everything one simulation run produces.
type Result struct {
	Summary       types.PerformanceSummary
	EquityCurve   []types.EquityCurvePoint
	Trades        []types.Trade
	OpenPositions []types.Position
	Returns       []float64
}

// Backtest drives one strategy over one instrument's history.
type Backtest struct {
	config Config
	strat  strategy.Strategy
	log    *logger.Logger
}

// NewBacktest validates the configuration and prepares a run. Configuration
// failures surface here, before any simulation work begins.
func NewBacktest(config Config, strat strategy.Strategy, log *logger.Logger) (*Backtest, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no strategy provided")
	}

	return &Backtest{config: config, strat: strat, log: log}, nil
}

// Run replays the history bar by bar: signal generation, order execution,
// revaluation, and one equity sample per bar. Per-order failures are
// recovered locally and never abort the run.
func (b *Backtest) Run(hist *series.Series, onBar optional.Option[OnBarCallback]) (*Result, error) {
	if hist == nil || hist.Len() == 0 {
		return nil, errors.New(errors.ErrCodeDataUnavailable, "no history to simulate")
	}

	book, err := ledger.NewLedger(b.config.InitialCapital, b.log)
	if err != nil {
		return nil, err
	}

	exec := NewExecutionSimulator(
		slippage.GetModel(b.config.SlippageModel, b.config.SlippageParam),
		commission.GetModel(b.config.CommissionModel, b.config.CommissionParam),
		book,
		b.log,
	)

	total := hist.Len()

	for i := 0; i < total; i++ {
		bar := hist.At(i)
		history := hist.UpTo(bar.Time)

		for _, order := range b.strat.Generate(bar.Symbol, history) {
			if _, err := exec.Execute(order, bar); err != nil {
				if isRecoverable(err) {
					continue
				}

				return nil, err
			}
		}

		book.Revalue(bar.Symbol, bar.Close)
		book.SampleEquity(bar.Time)

		if onBar.IsSome() {
			onBar.Unwrap()(i+1, total)
		}
	}

	return b.buildResult(hist, book), nil
}

// isRecoverable reports whether an execution error is recovered locally:
// unaffordable buys and untriggered limit/stop orders skip to the next
// order, everything else is a logic defect.
func isRecoverable(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeInsufficientFunds, errors.ErrCodeOrderRejected, errors.ErrCodeInvalidOrder:
		return true
	}

	return false
}

func (b *Backtest) buildResult(hist *series.Series, book *ledger.Ledger) *Result {
	equity := book.EquityCurve()
	trades := book.Trades()

	values := make([]float64, len(equity))
	for i, point := range equity {
		values[i] = point.Value
	}

	pnls := make([]float64, len(trades))
	for i, trade := range trades {
		pnls[i] = trade.PnL
	}

	metrics := analyzer.Analyze(values, pnls, b.config.InitialCapital, b.config.TradingPeriodsPerYear)

	first, _ := hist.First()
	last, _ := hist.Last()

	buyAndHold := 0.0
	if first.Close > 0 {
		buyAndHold = (last.Close/first.Close - 1) * b.config.InitialCapital
	}

	finalValue := b.config.InitialCapital
	if len(values) > 0 {
		finalValue = values[len(values)-1]
	}

	summary := types.PerformanceSummary{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now(),
		Symbol:              first.Symbol,
		Strategy:            b.strat.Name(),
		InitialCapital:      b.config.InitialCapital,
		FinalValue:          finalValue,
		TotalReturnPct:      metrics.TotalReturn * 100,
		AnnualizedReturnPct: metrics.AnnualizedReturn * 100,
		SharpeRatio:         metrics.SharpeRatio,
		SortinoRatio:        metrics.SortinoRatio,
		MaxDrawdownPct:      metrics.MaxDrawdown * 100,
		TotalTrades:         len(trades),
		WinRatePct:          metrics.WinRate * 100,
		NumOpenPositions:    len(book.OpenPositions()),
		TotalCommission:     book.TotalCommission(),
		TotalSlippageCost:   book.TotalSlippageCost(),
		BuyAndHoldPnL:       buyAndHold,
	}

	if b.log != nil {
		b.log.Debug("Backtest finished",
			zap.String("symbol", summary.Symbol),
			zap.String("strategy", summary.Strategy),
			zap.Float64("final_value", summary.FinalValue),
			zap.Int("trades", summary.TotalTrades),
		)
	}

	return &Result{
		Summary:       summary,
		EquityCurve:   equity,
		Trades:        trades,
		OpenPositions: book.OpenPositions(),
		Returns:       analyzer.Returns(values),
	}
}
