package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceSummary is the record handed to the presentation layer after a
// single backtest run.
type PerformanceSummary struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the instrument backtested.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Strategy is the name of the signal generator used.
	Strategy string `yaml:"strategy" json:"strategy"`

	InitialCapital      float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalValue          float64 `yaml:"final_value" json:"final_value"`
	TotalReturnPct      float64 `yaml:"total_return_pct" json:"total_return_pct"`
	AnnualizedReturnPct float64 `yaml:"annualized_return_pct" json:"annualized_return_pct"`
	SharpeRatio         float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio        float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	MaxDrawdownPct      float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	TotalTrades         int     `yaml:"total_trades" json:"total_trades"`
	WinRatePct          float64 `yaml:"win_rate_pct" json:"win_rate_pct"`
	NumOpenPositions    int     `yaml:"num_open_positions" json:"num_open_positions"`
	TotalCommission     float64 `yaml:"total_commission" json:"total_commission"`
	TotalSlippageCost   float64 `yaml:"total_slippage_cost" json:"total_slippage_cost"`
	// BuyAndHoldPnL is the benchmark P&L of holding the instrument across
	// the same period with the full initial capital.
	BuyAndHoldPnL float64 `yaml:"buy_and_hold_pnl" json:"buy_and_hold_pnl"`
}

// OptimizationWindow is one walk-forward step. Immutable once evaluated.
type OptimizationWindow struct {
	Index          int       `yaml:"index" json:"index"`
	InSampleStart  time.Time `yaml:"in_sample_start" json:"in_sample_start"`
	InSampleEnd    time.Time `yaml:"in_sample_end" json:"in_sample_end"`
	OutSampleStart time.Time `yaml:"out_sample_start" json:"out_sample_start"`
	OutSampleEnd   time.Time `yaml:"out_sample_end" json:"out_sample_end"`

	ChosenParams    map[string]float64 `yaml:"chosen_params" json:"chosen_params"`
	InSampleSharpe  float64            `yaml:"in_sample_sharpe" json:"in_sample_sharpe"`
	OutSampleSharpe float64            `yaml:"out_sample_sharpe" json:"out_sample_sharpe"`
	InSampleReturn  float64            `yaml:"in_sample_return" json:"in_sample_return"`
	OutSampleReturn float64            `yaml:"out_sample_return" json:"out_sample_return"`
	// Degradation is in-sample Sharpe minus out-of-sample Sharpe, the
	// primary overfitting signal.
	Degradation float64 `yaml:"degradation" json:"degradation"`
	// OverfitScore is a 0-100 score derived from degradation and the
	// divergence between in-sample and out-of-sample total return.
	OverfitScore float64 `yaml:"overfit_score" json:"overfit_score"`

	// Skipped windows are recorded explicitly rather than silently dropped;
	// they never enter aggregate averages.
	Skipped    bool   `yaml:"skipped" json:"skipped"`
	SkipReason string `yaml:"skip_reason,omitempty" json:"skip_reason,omitempty"`
}

// WalkForwardResult aggregates the ordered walk-forward windows and the
// derived overfitting diagnostics.
type WalkForwardResult struct {
	ID        string    `yaml:"id" json:"id"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Strategy  string    `yaml:"strategy" json:"strategy"`

	Windows []OptimizationWindow `yaml:"windows" json:"windows"`

	AvgInSampleSharpe      float64            `yaml:"avg_in_sample_sharpe" json:"avg_in_sample_sharpe"`
	AvgOutSampleSharpe     float64            `yaml:"avg_out_sample_sharpe" json:"avg_out_sample_sharpe"`
	AvgDegradation         float64            `yaml:"avg_degradation" json:"avg_degradation"`
	OverallOutSampleSharpe float64            `yaml:"overall_out_sample_sharpe" json:"overall_out_sample_sharpe"`
	ParamStability         map[string]float64 `yaml:"param_stability" json:"param_stability"`
	OverfittingDetected    bool               `yaml:"overfitting_detected" json:"overfitting_detected"`

	EvaluatedWindows int `yaml:"evaluated_windows" json:"evaluated_windows"`
	SkippedWindows   int `yaml:"skipped_windows" json:"skipped_windows"`
}

// WritePerformanceSummary writes performance summaries to a YAML file.
func WritePerformanceSummary(path string, stats []PerformanceSummary) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal performance summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance summary to file: %w", err)
	}

	return nil
}

// WriteWalkForwardResult writes a walk-forward summary to a YAML file.
func WriteWalkForwardResult(path string, result WalkForwardResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal walk-forward result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write walk-forward result to file: %w", err)
	}

	return nil
}
