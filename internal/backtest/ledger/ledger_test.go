package ledger

import (
	"testing"
	"time"

	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func fillAt(side types.Side, qty, price float64, t time.Time) types.Fill {
	return types.Fill{
		OrderID:  "order-1",
		Symbol:   "AAPL",
		Side:     side,
		Quantity: qty,
		Price:    price,
		Time:     t,
	}
}

func (suite *LedgerTestSuite) TestNewLedgerRejectsNonPositiveCapital() {
	_, err := NewLedger(0, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *LedgerTestSuite) TestBuyDebitsCashAndOpensPosition() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	fill := fillAt(types.SideBuy, 100, 50, now)
	fill.Commission = 0.50

	suite.Require().NoError(book.ApplyFill(fill))

	suite.InDelta(100000-5000.50, book.Cash(), 1e-9)

	position := book.Position("AAPL")
	suite.Equal(100.0, position.Quantity)
	suite.Equal(50.0, position.AverageEntryPrice)
}

func (suite *LedgerTestSuite) TestInsufficientFundsLeavesStateUntouched() {
	book, err := NewLedger(1000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	err = book.ApplyFill(fillAt(types.SideBuy, 100, 50, now))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientFunds))

	suite.Equal(1000.0, book.Cash())
	aaplPosition := book.Position("AAPL")
	suite.True(aaplPosition.IsFlat())
	suite.Empty(book.Trades())
}

func (suite *LedgerTestSuite) TestWeightedAverageEntryPrice() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 100, 50, now)))
	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 50, 56, now.Add(time.Hour))))

	position := book.Position("AAPL")
	suite.Equal(150.0, position.Quantity)
	// (100*50 + 50*56) / 150
	suite.InDelta(52.0, position.AverageEntryPrice, 1e-9)
}

func (suite *LedgerTestSuite) TestCloseEmitsRoundTripTrade() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	entry := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	exit := entry.AddDate(0, 0, 5)

	buy := fillAt(types.SideBuy, 100, 50, entry)
	buy.Commission = 1.0
	suite.Require().NoError(book.ApplyFill(buy))

	sell := fillAt(types.SideSell, 100, 55, exit)
	sell.Commission = 1.0
	suite.Require().NoError(book.ApplyFill(sell))

	trades := book.Trades()
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Equal("AAPL", trade.Symbol)
	suite.Equal(entry, trade.EntryTime)
	suite.Equal(exit, trade.ExitTime)
	suite.Equal(100.0, trade.Quantity)
	suite.InDelta(500.0, trade.PnL, 1e-9)
	suite.InDelta(2.0, trade.Commission, 1e-9)
	aaplPosition := book.Position("AAPL")
	suite.True(aaplPosition.IsFlat())
}

func (suite *LedgerTestSuite) TestPartialReductionRealizesProportionally() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 100, 50, now)))
	suite.Require().NoError(book.ApplyFill(fillAt(types.SideSell, 40, 60, now.Add(time.Hour))))

	position := book.Position("AAPL")
	suite.Equal(60.0, position.Quantity)
	suite.InDelta(400.0, position.RealizedPnL, 1e-9)
	// No trade yet: the round trip is still open.
	suite.Empty(book.Trades())
}

func (suite *LedgerTestSuite) TestShortPositionRealizedPnL() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.Require().NoError(book.ApplyFill(fillAt(types.SideSell, 100, 50, now)))

	position := book.Position("AAPL")
	suite.Equal(-100.0, position.Quantity)

	// Cover at a lower price: a short profits when price falls.
	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 100, 45, now.Add(time.Hour))))

	trades := book.Trades()
	suite.Require().Len(trades, 1)
	suite.InDelta(500.0, trades[0].PnL, 1e-9)
}

func (suite *LedgerTestSuite) TestReversalClosesThenReopens() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 100, 50, now)))
	suite.Require().NoError(book.ApplyFill(fillAt(types.SideSell, 150, 55, now.Add(time.Hour))))

	trades := book.Trades()
	suite.Require().Len(trades, 1)
	suite.InDelta(500.0, trades[0].PnL, 1e-9)

	position := book.Position("AAPL")
	suite.Equal(-50.0, position.Quantity)
	suite.Equal(55.0, position.AverageEntryPrice)
}

func (suite *LedgerTestSuite) TestReversalCostsStayWithClosedTrip() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	buy := fillAt(types.SideBuy, 100, 50, now)
	buy.Commission = 1.0
	buy.SlippageCost = 0.5
	suite.Require().NoError(book.ApplyFill(buy))

	// Reverses long 100 into short 50. The fill's costs belong to the
	// trade it closes, not to the reopened short.
	reverse := fillAt(types.SideSell, 150, 55, now.Add(time.Hour))
	reverse.Commission = 1.5
	reverse.SlippageCost = 0.75
	suite.Require().NoError(book.ApplyFill(reverse))

	trades := book.Trades()
	suite.Require().Len(trades, 1)
	suite.InDelta(2.5, trades[0].Commission, 1e-9)
	suite.InDelta(1.25, trades[0].SlippageCost, 1e-9)

	cover := fillAt(types.SideBuy, 50, 54, now.Add(2*time.Hour))
	cover.Commission = 2.0
	cover.SlippageCost = 0.25
	suite.Require().NoError(book.ApplyFill(cover))

	trades = book.Trades()
	suite.Require().Len(trades, 2)
	suite.InDelta(2.0, trades[1].Commission, 1e-9)
	suite.InDelta(0.25, trades[1].SlippageCost, 1e-9)

	// Every fill's cost appears in exactly one trade.
	suite.InDelta(book.TotalCommission(), trades[0].Commission+trades[1].Commission, 1e-9)
	suite.InDelta(book.TotalSlippageCost(), trades[0].SlippageCost+trades[1].SlippageCost, 1e-9)
}

func (suite *LedgerTestSuite) TestEquityConsistency() {
	// Cash plus position market value always equals the sampled equity
	// point, within floating point tolerance.
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	fills := []types.Fill{
		fillAt(types.SideBuy, 100, 50, now),
		fillAt(types.SideBuy, 50, 52, now.Add(time.Hour)),
		fillAt(types.SideSell, 75, 51, now.Add(2*time.Hour)),
	}

	for i, fill := range fills {
		suite.Require().NoError(book.ApplyFill(fill))
		book.Revalue("AAPL", fill.Price)

		point := book.SampleEquity(fill.Time)

		expected := book.Cash() + book.Position("AAPL").Quantity*fill.Price
		suite.InDelta(expected, point.Value, 1e-6*expected, "fill %d", i)
	}

	suite.Len(book.EquityCurve(), len(fills))
}

func (suite *LedgerTestSuite) TestCashNeverNegative() {
	book, err := NewLedger(5000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	// Exhaust most of the cash, then try to overspend.
	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 90, 50, now)))

	err = book.ApplyFill(fillAt(types.SideBuy, 20, 50, now.Add(time.Hour)))
	suite.Require().Error(err)
	suite.GreaterOrEqual(book.Cash(), 0.0)
}

func (suite *LedgerTestSuite) TestRevalueUpdatesUnrealized() {
	book, err := NewLedger(100000, nil)
	suite.Require().NoError(err)

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	suite.Require().NoError(book.ApplyFill(fillAt(types.SideBuy, 100, 50, now)))

	book.Revalue("AAPL", 53)

	position := book.Position("AAPL")
	suite.InDelta(300.0, position.UnrealizedPnL, 1e-9)
	suite.Equal(53.0, position.LastPrice)

	// Revaluing an unknown symbol is a no-op.
	book.Revalue("MSFT", 10)
	msftPosition := book.Position("MSFT")
	suite.True(msftPosition.IsFlat())
}
