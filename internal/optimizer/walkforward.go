package optimizer

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/analyzer"
	"github.com/quantfold/quantfold/internal/backtest/engine"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

// State is the walk-forward driver's phase. Transitions are
// Initialized → (WindowOptimizing → WindowEvaluating)* → Aggregated.
type State string

const (
	StateInitialized      State = "initialized"
	StateWindowOptimizing State = "window_optimizing"
	StateWindowEvaluating State = "window_evaluating"
	StateAggregated       State = "aggregated"
)

const (
	// degradationThreshold is the average in-sample minus out-of-sample
	// Sharpe beyond which the run is flagged as overfit.
	degradationThreshold = 1.0
	// overfitScoreThreshold is the mean per-window score (0-100 scale)
	// beyond which the run is flagged as overfit.
	overfitScoreThreshold = 50.0
)

// WalkForwardConfig controls window slicing and the inner search.
type WalkForwardConfig struct {
	InSampleDays  int `yaml:"in_sample_days" json:"in_sample_days"`
	OutSampleDays int `yaml:"out_sample_days" json:"out_sample_days"`
	StepDays      int `yaml:"step_days" json:"step_days"`

	StrategyName string       `yaml:"strategy" json:"strategy"`
	ParamRanges  []ParamRange `yaml:"param_ranges" json:"param_ranges"`
}

// DefaultWalkForwardConfig returns the documented defaults: one trading
// year in-sample, one quarter out-of-sample, stepping by one quarter.
func DefaultWalkForwardConfig() WalkForwardConfig {
	return WalkForwardConfig{
		InSampleDays:  252,
		OutSampleDays: 63,
		StepDays:      63,
		StrategyName:  "sma_cross",
		ParamRanges: []ParamRange{
			{Name: "fast_period", Min: 5, Max: 20, Step: 5},
			{Name: "slow_period", Min: 20, Max: 60, Step: 10},
		},
	}
}

// WalkForward repeatedly optimizes on an in-sample window and evaluates the
// frozen parameters on the following out-of-sample window. Parameters are
// never re-fit on out-of-sample data.
type WalkForward struct {
	config       WalkForwardConfig
	engineConfig engine.Config
	grid         *GridSearch
	log          *logger.Logger
	state        State
}

// NewWalkForward validates both configs up front; invalid bounds or window
// sizes never start a simulation.
func NewWalkForward(config WalkForwardConfig, engineConfig engine.Config, log *logger.Logger) (*WalkForward, error) {
	if err := engineConfig.Validate(); err != nil {
		return nil, err
	}

	if config.StrategyName == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no strategy named")
	}

	grid, err := NewGridSearch(config.ParamRanges)
	if err != nil {
		return nil, err
	}

	return &WalkForward{
		config:       config,
		engineConfig: engineConfig,
		grid:         grid,
		log:          log,
		state:        StateInitialized,
	}, nil
}

// State returns the driver's current phase.
func (w *WalkForward) State() State {
	return w.state
}

// Run executes all windows and aggregates the result. Per-window failures
// (missing data, a failed inner search) skip that window with an explicit
// note; they are never counted as zero-Sharpe windows.
func (w *WalkForward) Run(hist *series.Series) (*types.WalkForwardResult, error) {
	windows, err := series.GenerateWindows(hist, w.config.InSampleDays, w.config.OutSampleDays, w.config.StepDays)
	if err != nil {
		return nil, err
	}

	first, _ := hist.First()

	result := &types.WalkForwardResult{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Symbol:    first.Symbol,
		Strategy:  w.config.StrategyName,
	}

	var oosReturns []float64

	for _, window := range windows {
		record, windowReturns := w.runWindow(hist, window)
		result.Windows = append(result.Windows, record)

		if record.Skipped {
			result.SkippedWindows++

			continue
		}

		result.EvaluatedWindows++

		oosReturns = append(oosReturns, windowReturns...)
	}

	w.state = StateAggregated

	if result.EvaluatedWindows == 0 {
		return nil, errors.Newf(errors.ErrCodeNoWindows,
			"all %d walk-forward windows were skipped", len(result.Windows))
	}

	w.aggregate(result, oosReturns)

	return result, nil
}

// runWindow performs one optimize-then-evaluate cycle.
func (w *WalkForward) runWindow(hist *series.Series, window series.Window) (types.OptimizationWindow, []float64) {
	record := types.OptimizationWindow{
		Index:          window.Index,
		InSampleStart:  window.InSampleStart,
		InSampleEnd:    window.InSampleEnd,
		OutSampleStart: window.OutSampleStart,
		OutSampleEnd:   window.OutSampleEnd,
	}

	inSample := hist.Range(window.InSampleStart, window.InSampleEnd)
	outSample := hist.Range(window.OutSampleStart, window.OutSampleEnd)

	if inSample.Len() == 0 || outSample.Len() == 0 {
		record.Skipped = true
		record.SkipReason = "no history in window range"

		w.logSkip(window, record.SkipReason)

		return record, nil
	}

	// Optimize on the in-sample segment only.
	w.state = StateWindowOptimizing

	params, inSharpe, err := w.grid.Optimize(func(params strategy.Params) (float64, error) {
		result, err := w.runPipeline(params, inSample)
		if err != nil {
			return 0, err
		}

		return result.Summary.SharpeRatio, nil
	})
	if err != nil {
		record.Skipped = true
		record.SkipReason = err.Error()

		w.logSkip(window, record.SkipReason)

		return record, nil
	}

	inResult, err := w.runPipeline(params, inSample)
	if err != nil {
		record.Skipped = true
		record.SkipReason = err.Error()

		return record, nil
	}

	// Evaluate the frozen parameters on the out-of-sample segment,
	// unmodified. This is the core correctness property of walk-forward
	// analysis.
	w.state = StateWindowEvaluating

	outResult, err := w.runPipeline(params, outSample)
	if err != nil {
		record.Skipped = true
		record.SkipReason = err.Error()

		w.logSkip(window, record.SkipReason)

		return record, nil
	}

	record.ChosenParams = map[string]float64(params)
	record.InSampleSharpe = inSharpe
	record.OutSampleSharpe = outResult.Summary.SharpeRatio
	record.InSampleReturn = inResult.Summary.TotalReturnPct / 100
	record.OutSampleReturn = outResult.Summary.TotalReturnPct / 100
	record.Degradation = record.InSampleSharpe - record.OutSampleSharpe
	record.OverfitScore = overfitScore(record.Degradation, record.InSampleReturn, record.OutSampleReturn)

	return record, outResult.Returns
}

// runPipeline runs the full signal → execution → analysis pipeline over a
// segment with the given candidate parameters.
func (w *WalkForward) runPipeline(params strategy.Params, segment *series.Series) (*engine.Result, error) {
	strat, err := strategy.New(w.config.StrategyName, params)
	if err != nil {
		return nil, err
	}

	backtest, err := engine.NewBacktest(w.engineConfig, strat, w.log)
	if err != nil {
		return nil, err
	}

	return backtest.Run(segment, optional.None[engine.OnBarCallback]())
}

// overfitScore maps degradation and in/out return divergence onto a 0-100
// scale. Zero degradation and matching returns score 0.
func overfitScore(degradation, inReturn, outReturn float64) float64 {
	score := degradation*25 + math.Abs(inReturn-outReturn)*100

	return math.Max(0, math.Min(100, score))
}

func (w *WalkForward) aggregate(result *types.WalkForwardResult, oosReturns []float64) {
	var sharpesIn, sharpesOut, degradations, scores []float64

	paramValues := make(map[string][]float64)

	for _, window := range result.Windows {
		if window.Skipped {
			continue
		}

		sharpesIn = append(sharpesIn, window.InSampleSharpe)
		sharpesOut = append(sharpesOut, window.OutSampleSharpe)
		degradations = append(degradations, window.Degradation)
		scores = append(scores, window.OverfitScore)

		for name, value := range window.ChosenParams {
			paramValues[name] = append(paramValues[name], value)
		}
	}

	result.AvgInSampleSharpe = analyzer.Mean(sharpesIn)
	result.AvgOutSampleSharpe = analyzer.Mean(sharpesOut)
	result.AvgDegradation = analyzer.Mean(degradations)
	result.OverallOutSampleSharpe = analyzer.SharpeRatio(oosReturns, w.engineConfig.TradingPeriodsPerYear)

	result.ParamStability = make(map[string]float64, len(paramValues))
	for name, values := range paramValues {
		result.ParamStability[name] = analyzer.StdDev(values)
	}

	result.OverfittingDetected = result.AvgDegradation > degradationThreshold ||
		analyzer.Mean(scores) > overfitScoreThreshold ||
		result.OverallOutSampleSharpe < 0

	if w.log != nil {
		w.log.Info("Walk-forward aggregated",
			zap.Int("evaluated_windows", result.EvaluatedWindows),
			zap.Int("skipped_windows", result.SkippedWindows),
			zap.Float64("avg_degradation", result.AvgDegradation),
			zap.Bool("overfitting_detected", result.OverfittingDetected),
		)
	}
}

func (w *WalkForward) logSkip(window series.Window, reason string) {
	if w.log != nil {
		w.log.Warn("Walk-forward window skipped",
			zap.Int("window", window.Index),
			zap.String("reason", reason),
		)
	}
}
