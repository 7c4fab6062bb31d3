package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestTradeReturn() {
	tests := []struct {
		name     string
		trade    Trade
		expected float64
	}{
		{
			name:     "Profitable round trip",
			trade:    Trade{EntryPrice: 100, Quantity: 10, PnL: 50},
			expected: 0.05,
		},
		{
			name:     "Losing round trip",
			trade:    Trade{EntryPrice: 100, Quantity: 10, PnL: -150},
			expected: -0.15,
		},
		{
			name:     "Zero entry price",
			trade:    Trade{EntryPrice: 0, Quantity: 10, PnL: 50},
			expected: 0,
		},
		{
			name:     "Zero quantity",
			trade:    Trade{EntryPrice: 100, Quantity: 0, PnL: 50},
			expected: 0,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, tt.trade.Return(), 1e-9)
		})
	}
}

func (suite *TradeTestSuite) TestPositionHelpers() {
	suite.Run("Flat position", func() {
		position := Position{Symbol: "AAPL"}
		suite.True(position.IsFlat())
		suite.Equal(0.0, position.MarketValue())
	})

	suite.Run("Long market value", func() {
		position := Position{Quantity: 100, LastPrice: 50.25}
		suite.False(position.IsFlat())
		suite.InDelta(5025.0, position.MarketValue(), 1e-9)
	})

	suite.Run("Short market value is negative", func() {
		position := Position{Quantity: -100, LastPrice: 50}
		suite.InDelta(-5000.0, position.MarketValue(), 1e-9)
	})
}
