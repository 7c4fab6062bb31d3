package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/stretchr/testify/suite"
	yaml "gopkg.in/yaml.v3"
)

type CSVWriterTestSuite struct {
	suite.Suite
	baseDir string
	writer  ResultWriter
}

func TestCSVWriterSuite(t *testing.T) {
	suite.Run(t, new(CSVWriterTestSuite))
}

func (suite *CSVWriterTestSuite) SetupTest() {
	suite.baseDir = suite.T().TempDir()

	w, err := NewCSVWriter(suite.baseDir)
	suite.Require().NoError(err)
	suite.writer = w
}

func (suite *CSVWriterTestSuite) TestCreatesRunDirectory() {
	info, err := os.Stat(suite.writer.Dir())
	suite.Require().NoError(err)
	suite.True(info.IsDir())
	suite.Equal(suite.baseDir, filepath.Dir(suite.writer.Dir()))
}

func (suite *CSVWriterTestSuite) TestWriteTradesRoundTrip() {
	entry := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	trades := []types.Trade{
		{
			ID:         "trade-1",
			Symbol:     "AAPL",
			EntryTime:  entry,
			EntryPrice: 50,
			ExitTime:   entry.AddDate(0, 0, 5),
			ExitPrice:  55,
			Quantity:   100,
			PnL:        500,
			Commission: 2.0,
		},
		{
			ID:         "trade-2",
			Symbol:     "AAPL",
			EntryTime:  entry.AddDate(0, 0, 10),
			EntryPrice: 55,
			ExitTime:   entry.AddDate(0, 0, 12),
			ExitPrice:  53,
			Quantity:   100,
			PnL:        -200,
			Commission: 2.0,
		},
	}

	suite.Require().NoError(suite.writer.WriteTrades(trades))

	file, err := os.Open(filepath.Join(suite.writer.Dir(), "trades.csv"))
	suite.Require().NoError(err)
	defer file.Close()

	var read []types.Trade
	suite.Require().NoError(gocsv.UnmarshalFile(file, &read))

	suite.Require().Len(read, 2)
	suite.Equal("trade-1", read[0].ID)
	suite.InDelta(500.0, read[0].PnL, 1e-9)
	suite.InDelta(-200.0, read[1].PnL, 1e-9)
}

func (suite *CSVWriterTestSuite) TestWriteEquityCurveRoundTrip() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	curve := []types.EquityCurvePoint{
		{Time: base, Value: 100000},
		{Time: base.AddDate(0, 0, 1), Value: 100500},
		{Time: base.AddDate(0, 0, 2), Value: 100250},
	}

	suite.Require().NoError(suite.writer.WriteEquityCurve(curve))

	file, err := os.Open(filepath.Join(suite.writer.Dir(), "equity_curve.csv"))
	suite.Require().NoError(err)
	defer file.Close()

	var read []types.EquityCurvePoint
	suite.Require().NoError(gocsv.UnmarshalFile(file, &read))

	suite.Require().Len(read, 3)
	suite.InDelta(100500.0, read[1].Value, 1e-9)
}

func (suite *CSVWriterTestSuite) TestWritePositions() {
	positions := []types.Position{
		{Symbol: "AAPL", Quantity: 100, AverageEntryPrice: 50, LastPrice: 52, UnrealizedPnL: 200},
	}

	suite.Require().NoError(suite.writer.WritePositions(positions))

	file, err := os.Open(filepath.Join(suite.writer.Dir(), "positions.csv"))
	suite.Require().NoError(err)
	defer file.Close()

	var read []types.Position
	suite.Require().NoError(gocsv.UnmarshalFile(file, &read))

	suite.Require().Len(read, 1)
	suite.Equal("AAPL", read[0].Symbol)
	suite.InDelta(200.0, read[0].UnrealizedPnL, 1e-9)
}

func (suite *CSVWriterTestSuite) TestWriteSummaryYAML() {
	summary := types.PerformanceSummary{
		ID:             "run-1",
		Symbol:         "AAPL",
		Strategy:       "sma_cross",
		InitialCapital: 100000,
		FinalValue:     105000,
		TotalReturnPct: 5,
		TotalTrades:    12,
	}

	suite.Require().NoError(suite.writer.WriteSummary(summary))

	data, err := os.ReadFile(filepath.Join(suite.writer.Dir(), "summary.yaml"))
	suite.Require().NoError(err)

	var read types.PerformanceSummary
	suite.Require().NoError(yaml.Unmarshal(data, &read))

	suite.Equal("run-1", read.ID)
	suite.InDelta(105000.0, read.FinalValue, 1e-9)
	suite.Equal(12, read.TotalTrades)
}
