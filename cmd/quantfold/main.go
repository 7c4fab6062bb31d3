package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/backtest/engine"
	"github.com/quantfold/quantfold/internal/datasource"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/optimizer"
	"github.com/quantfold/quantfold/internal/scenario"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	yaml "gopkg.in/yaml.v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "quantfold",
		Usage: "Deterministic backtesting and walk-forward optimization",
		Commands: []*cli.Command{
			backtestCommand(),
			walkforwardCommand(),
			sweepCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run one strategy over one instrument's history",
		Flags: append(dataFlags(),
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"x"},
				Usage:   fmt.Sprintf("Strategy name (one of: %s)", strings.Join(strategy.Names(), ", ")),
				Value:   "sma_cross",
			},
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Strategy parameter as `name=value`, repeatable",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the YAML report",
				Value:   "backtest_result.yaml",
			},
			&cli.StringFlag{
				Name:  "report-dir",
				Usage: "Directory for per-run CSV artifacts (trades, positions, equity curve)",
				Value: "results",
			},
		),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	config, err := readEngineConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	strat, err := strategy.New(cmd.String("strategy"), params)
	if err != nil {
		return err
	}

	hist, err := loadHistory(cmd.String("data"), cmd.String("symbol"), config, appLogger)
	if err != nil {
		return err
	}

	backtest, err := engine.NewBacktest(config, strat, appLogger)
	if err != nil {
		return err
	}

	result, err := backtest.Run(hist, optional.Some(progressCallback()))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := types.WritePerformanceSummary(output, []types.PerformanceSummary{result.Summary}); err != nil {
		return err
	}

	runDir, err := writeRunArtifacts(cmd.String("report-dir"), result)
	if err != nil {
		return err
	}

	log.Printf("Backtest complete: final value %.2f over %d trades, report written to %s, artifacts in %s",
		result.Summary.FinalValue, result.Summary.TotalTrades, output, runDir)

	return nil
}

// writeRunArtifacts exports the run's trade log, open positions, equity
// curve and summary into a timestamped directory under baseDir.
func writeRunArtifacts(baseDir string, result *engine.Result) (string, error) {
	w, err := writer.NewCSVWriter(baseDir)
	if err != nil {
		return "", err
	}

	if err := w.WriteTrades(result.Trades); err != nil {
		return "", err
	}

	if err := w.WritePositions(result.OpenPositions); err != nil {
		return "", err
	}

	if err := w.WriteEquityCurve(result.EquityCurve); err != nil {
		return "", err
	}

	if err := w.WriteSummary(result.Summary); err != nil {
		return "", err
	}

	return w.Dir(), nil
}

func walkforwardCommand() *cli.Command {
	return &cli.Command{
		Name:  "walkforward",
		Usage: "Rolling in-sample optimization with out-of-sample evaluation",
		Flags: append(dataFlags(),
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"x"},
				Usage:   fmt.Sprintf("Strategy name (one of: %s)", strings.Join(strategy.Names(), ", ")),
				Value:   "sma_cross",
			},
			&cli.IntFlag{
				Name:  "in-sample",
				Usage: "In-sample window length in calendar days",
				Value: 252,
			},
			&cli.IntFlag{
				Name:  "out-sample",
				Usage: "Out-of-sample window length in calendar days",
				Value: 63,
			},
			&cli.IntFlag{
				Name:  "step",
				Usage: "Days to advance between windows",
				Value: 63,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the YAML report",
				Value:   "walkforward_result.yaml",
			},
		),
		Action: walkforwardAction,
	}
}

func walkforwardAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	engineConfig, err := readEngineConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	wfConfig := optimizer.DefaultWalkForwardConfig()
	wfConfig.InSampleDays = int(cmd.Int("in-sample"))
	wfConfig.OutSampleDays = int(cmd.Int("out-sample"))
	wfConfig.StepDays = int(cmd.Int("step"))
	wfConfig.StrategyName = cmd.String("strategy")

	hist, err := loadHistory(cmd.String("data"), cmd.String("symbol"), engineConfig, appLogger)
	if err != nil {
		return err
	}

	wf, err := optimizer.NewWalkForward(wfConfig, engineConfig, appLogger)
	if err != nil {
		return err
	}

	result, err := wf.Run(hist)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := types.WriteWalkForwardResult(output, *result); err != nil {
		return err
	}

	log.Printf("Walk-forward complete: %d windows evaluated, %d skipped, overfitting detected: %v, report written to %s",
		result.EvaluatedWindows, result.SkippedWindows, result.OverfittingDetected, output)

	return nil
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Run a scenario grid over an external picks list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "picks",
				Usage:    "Path to a YAML picks list",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML sweep configuration; defaults apply when omitted",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the YAML report",
				Value:   "sweep_result.yaml",
			},
		},
		Action: sweepAction,
	}
}

func sweepAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	picks, err := readPicks(cmd.String("picks"))
	if err != nil {
		return err
	}

	config := scenario.DefaultSweepConfig()

	if path := cmd.String("config"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if err := yaml.Unmarshal(content, &config); err != nil {
			return err
		}
	}

	runner, err := scenario.NewRunner(config, appLogger)
	if err != nil {
		return err
	}

	results, err := runner.RunSweep(picks)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := scenario.WriteResults(output, results); err != nil {
		return err
	}

	log.Printf("Sweep complete: %d scenarios, report written to %s", len(results), output)

	return nil
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema for the backtest configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config := engine.Config{}

			schema, err := config.GenerateSchemaJSON()
			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}

// dataFlags are shared by every command that replays bar history.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Path to market data (CSV or parquet)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "symbol",
			Aliases:  []string{"s"},
			Usage:    "Instrument symbol to simulate",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML backtest configuration; defaults apply when omitted",
		},
	}
}

func readEngineConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, err
	}

	return engine.ParseConfig(content)
}

func readPicks(path string) ([]strategy.Pick, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var picks []strategy.Pick
	if err := yaml.Unmarshal(content, &picks); err != nil {
		return nil, err
	}

	return picks, nil
}

// loadHistory opens the data file through DuckDB and loads the configured
// time range into memory before any simulation begins.
func loadHistory(dataPath, symbol string, config engine.Config, log *logger.Logger) (*series.Series, error) {
	source, err := datasource.NewDuckDBDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return nil, err
	}

	start := config.StartTime.TakeOr(time.Time{})
	end := config.EndTime.TakeOr(time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))

	return datasource.LoadSeries(source, symbol, start, end)
}

func parseParams(raw []string) (strategy.Params, error) {
	params := make(strategy.Params, len(raw))

	for _, pair := range raw {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}

		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for parameter %q: %w", name, err)
		}

		params[name] = parsed
	}

	return params, nil
}

// progressCallback renders a terminal progress bar over the bar loop. The
// bar is sized lazily because the total is only known once the run starts.
func progressCallback() engine.OnBarCallback {
	var bar *progressbar.ProgressBar

	return func(current int, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "bars")
		}

		_ = bar.Set(current)
	}
}
