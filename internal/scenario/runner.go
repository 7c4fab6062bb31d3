// Package scenario executes the simulation pipeline once per point in a
// parameter grid of win-rate filter, position-size fraction, and
// pyramiding mode, for comparative analysis. Each scenario is
// single-threaded and deterministic; scenarios run concurrently on a
// worker pool with zero shared mutable state.
package scenario

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantfold/quantfold/internal/analyzer"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

// PyramidMode selects how aggressively winners are added to.
type PyramidMode string

const (
	PyramidNone       PyramidMode = "none"
	PyramidModerate   PyramidMode = "moderate"
	PyramidAggressive PyramidMode = "aggressive"
)

// ScenarioConfig is one point of the sweep grid.
type ScenarioConfig struct {
	WinRate         float64     `yaml:"win_rate" json:"win_rate"`
	PositionSizePct float64     `yaml:"position_size_pct" json:"position_size_pct"`
	Pyramiding      PyramidMode `yaml:"pyramiding" json:"pyramiding"`
}

// Label names the scenario in reports.
func (c ScenarioConfig) Label() string {
	return fmt.Sprintf("wr=%.2f size=%.2f pyramid=%s", c.WinRate, c.PositionSizePct, c.Pyramiding)
}

// SweepConfig controls the full sweep.
type SweepConfig struct {
	InitialCapital        float64 `yaml:"initial_capital" json:"initial_capital"`
	StopLossPct           float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	PyramidFirstThreshold float64 `yaml:"pyramid_first_threshold" json:"pyramid_first_threshold"`
	PyramidSecondThreshold float64 `yaml:"pyramid_second_threshold" json:"pyramid_second_threshold"`
	TradingPeriodsPerYear int     `yaml:"trading_periods_per_year" json:"trading_periods_per_year"`
	RebalanceSteps        int     `yaml:"rebalance_steps" json:"rebalance_steps"`
	Workers               int     `yaml:"workers" json:"workers"`

	WinRates      []float64     `yaml:"win_rates" json:"win_rates"`
	PositionSizes []float64     `yaml:"position_sizes" json:"position_sizes"`
	PyramidModes  []PyramidMode `yaml:"pyramid_modes" json:"pyramid_modes"`
}

// DefaultSweepConfig returns the documented defaults.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		InitialCapital:        100000,
		StopLossPct:           -0.15,
		PyramidFirstThreshold: 0.15,
		PyramidSecondThreshold: 0.30,
		TradingPeriodsPerYear: 252,
		RebalanceSteps:        0,
		Workers:               4,
		WinRates:              []float64{0.5, 0.6, 0.7},
		PositionSizes:         []float64{0.05, 0.10, 0.20},
		PyramidModes:          []PyramidMode{PyramidNone, PyramidModerate, PyramidAggressive},
	}
}

// Validate rejects sweep configurations before any scenario starts.
func (c *SweepConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"initial_capital must be positive, got %f", c.InitialCapital)
	}

	if c.StopLossPct >= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"stop_loss_pct must be negative, got %f", c.StopLossPct)
	}

	if len(c.WinRates) == 0 || len(c.PositionSizes) == 0 || len(c.PyramidModes) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "empty sweep grid")
	}

	for _, size := range c.PositionSizes {
		if size <= 0 || size > 1 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"position size fraction must be in (0, 1], got %f", size)
		}
	}

	for _, wr := range c.WinRates {
		if wr < 0 || wr > 1 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"win rate must be in [0, 1], got %f", wr)
		}
	}

	return nil
}

// ScenarioResult pairs one grid point with its outcome. Failed scenarios
// are reported alongside successful ones, never suppressed.
type ScenarioResult struct {
	Config  ScenarioConfig           `yaml:"config" json:"config"`
	Summary types.PerformanceSummary `yaml:"summary" json:"summary"`
	Trades  []types.Trade            `yaml:"-" json:"-"`
	Error   string                   `yaml:"error,omitempty" json:"error,omitempty"`
}

// Runner executes sweeps over an externally supplied picks list, cycled
// when shorter than the number of rebalance steps.
type Runner struct {
	config SweepConfig
	log    *logger.Logger
}

// NewRunner validates the sweep configuration.
func NewRunner(config SweepConfig, log *logger.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Runner{config: config, log: log}, nil
}

// RunSweep executes the whole grid. Each worker owns its private state;
// aggregation is a reduce after all scenarios complete. Results come back
// in deterministic grid order.
func (r *Runner) RunSweep(picks []strategy.Pick) ([]ScenarioResult, error) {
	if len(picks) == 0 {
		return nil, errors.New(errors.ErrCodeDataUnavailable, "no picks supplied")
	}

	var grid []ScenarioConfig

	for _, wr := range r.config.WinRates {
		for _, size := range r.config.PositionSizes {
			for _, mode := range r.config.PyramidModes {
				grid = append(grid, ScenarioConfig{
					WinRate:         wr,
					PositionSizePct: size,
					Pyramiding:      mode,
				})
			}
		}
	}

	workers := r.config.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]ScenarioResult, len(grid))
	jobs := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range jobs {
				results[idx] = r.runScenario(grid[idx], picks)
			}
		}()
	}

	for idx := range grid {
		jobs <- idx
	}

	close(jobs)
	wg.Wait()

	if r.log != nil {
		r.log.Info("Sweep finished",
			zap.Int("scenarios", len(grid)),
			zap.Int("workers", workers),
		)
	}

	return results, nil
}

// runScenario replays the picks list once for one grid point. Position
// sizing is always computed against the original initial capital, never
// the current portfolio value, so compounding cannot distort comparisons
// across grid points.
func (r *Runner) runScenario(config ScenarioConfig, picks []strategy.Pick) ScenarioResult {
	steps := r.config.RebalanceSteps
	if steps <= 0 {
		steps = len(picks)
	}

	// Cycle the picks list when it is shorter than the number of steps.
	outcomes := make([]float64, steps)
	for i := 0; i < steps; i++ {
		outcomes[i] = picks[i%len(picks)].RealizedReturn
	}

	filtered := ApplyWinRateFilter(outcomes, config.WinRate, r.config.StopLossPct)

	cash := r.config.InitialCapital
	baseNotional := config.PositionSizePct * r.config.InitialCapital

	var (
		equity []float64
		trades []types.Trade
	)

	startTime := time.Now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < steps; i++ {
		pick := picks[i%len(picks)]

		// The stop-loss is a hard exit: no realized return may fall below
		// it regardless of the pick's original outcome.
		outcome := filtered[i]
		if outcome < r.config.StopLossPct {
			outcome = r.config.StopLossPct
		}

		committed := 0.0
		pnl := 0.0

		if cash >= baseNotional && baseNotional > 0 {
			committed = baseNotional
			pnl = baseNotional * outcome

			pnl += r.pyramidPnL(config.Pyramiding, outcome, baseNotional, cash-committed, &committed)

			stepTime := startTime.AddDate(0, 0, i)
			trades = append(trades, types.Trade{
				ID:         uuid.New().String(),
				Symbol:     pick.Symbol,
				EntryTime:  stepTime,
				EntryPrice: 1,
				ExitTime:   stepTime,
				ExitPrice:  1 + outcome,
				Quantity:   committed,
				PnL:        pnl,
			})
		}

		cash += pnl
		equity = append(equity, cash)
	}

	pnls := make([]float64, len(trades))
	for i, trade := range trades {
		pnls[i] = trade.PnL
	}

	metrics := analyzer.Analyze(equity, pnls, r.config.InitialCapital, r.config.TradingPeriodsPerYear)

	finalValue := r.config.InitialCapital
	if len(equity) > 0 {
		finalValue = equity[len(equity)-1]
	}

	return ScenarioResult{
		Config: config,
		Summary: types.PerformanceSummary{
			ID:                  uuid.New().String(),
			Timestamp:           time.Now(),
			Strategy:            "picks",
			InitialCapital:      r.config.InitialCapital,
			FinalValue:          finalValue,
			TotalReturnPct:      metrics.TotalReturn * 100,
			AnnualizedReturnPct: metrics.AnnualizedReturn * 100,
			SharpeRatio:         metrics.SharpeRatio,
			SortinoRatio:        metrics.SortinoRatio,
			MaxDrawdownPct:      metrics.MaxDrawdown * 100,
			TotalTrades:         len(trades),
			WinRatePct:          metrics.WinRate * 100,
		},
		Trades: trades,
	}
}

// pyramidPnL adds the fractional additions a pyramiding mode earns once a
// trade's running return crosses the configured thresholds, subject to
// available cash. Additions enter at the threshold price, so their return
// is the remaining distance to the final outcome.
func (r *Runner) pyramidPnL(mode PyramidMode, outcome, baseNotional, available float64, committed *float64) float64 {
	if mode == PyramidNone {
		return 0
	}

	pnl := 0.0
	addition := baseNotional * 0.5

	if outcome > r.config.PyramidFirstThreshold && available >= addition {
		pnl += addition * ((1+outcome)/(1+r.config.PyramidFirstThreshold) - 1)
		available -= addition
		*committed += addition
	}

	if mode == PyramidAggressive && outcome > r.config.PyramidSecondThreshold && available >= addition {
		pnl += addition * ((1+outcome)/(1+r.config.PyramidSecondThreshold) - 1)
		*committed += addition
	}

	return pnl
}
