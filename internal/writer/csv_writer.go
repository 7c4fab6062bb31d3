// Package writer exports simulation results to disk: trades, positions and
// the equity curve as CSV, the performance summary as YAML. Each run writes
// into its own timestamped directory.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/quantfold/quantfold/internal/types"
	yaml "gopkg.in/yaml.v3"
)

// ResultWriter writes one simulation run's artifacts.
type ResultWriter interface {
	// WriteTrades writes the closed round-trip trade log.
	WriteTrades(trades []types.Trade) error

	// WritePositions writes the positions still open at the end of the run.
	WritePositions(positions []types.Position) error

	// WriteEquityCurve writes the sampled equity curve.
	WriteEquityCurve(curve []types.EquityCurvePoint) error

	// WriteSummary writes the performance summary.
	WriteSummary(summary types.PerformanceSummary) error

	// Dir returns the directory this run writes into.
	Dir() string
}

// CSVWriter implements ResultWriter with one CSV file per artifact. Column
// order follows the csv struct tags on the result types.
type CSVWriter struct {
	runDir string
}

// NewCSVWriter creates a timestamped run directory under baseDir.
func NewCSVWriter(baseDir string) (ResultWriter, error) {
	runDir := filepath.Join(baseDir, time.Now().Format("2006-01-02_15-04-05"))

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	return &CSVWriter{runDir: runDir}, nil
}

// Dir implements ResultWriter.
func (w *CSVWriter) Dir() string {
	return w.runDir
}

// WriteTrades implements ResultWriter.
func (w *CSVWriter) WriteTrades(trades []types.Trade) error {
	return w.writeCSV("trades.csv", &trades)
}

// WritePositions implements ResultWriter.
func (w *CSVWriter) WritePositions(positions []types.Position) error {
	return w.writeCSV("positions.csv", &positions)
}

// WriteEquityCurve implements ResultWriter.
func (w *CSVWriter) WriteEquityCurve(curve []types.EquityCurvePoint) error {
	return w.writeCSV("equity_curve.csv", &curve)
}

// WriteSummary implements ResultWriter.
func (w *CSVWriter) WriteSummary(summary types.PerformanceSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(w.runDir, "summary.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

func (w *CSVWriter) writeCSV(name string, records any) error {
	file, err := os.Create(filepath.Join(w.runDir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(records, file); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}
