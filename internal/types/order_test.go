package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func validMarketOrder() Order {
	return Order{
		Symbol:      "AAPL",
		Side:        SideBuy,
		Quantity:    100,
		Kind:        OrderKindMarket,
		RequestedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Reason:      OrderReasonStrategy,
	}
}

func (suite *OrderTestSuite) TestValidate() {
	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{
			name:    "Valid market order",
			mutate:  func(o *Order) {},
			wantErr: false,
		},
		{
			name:    "Missing symbol",
			mutate:  func(o *Order) { o.Symbol = "" },
			wantErr: true,
		},
		{
			name:    "Invalid side",
			mutate:  func(o *Order) { o.Side = "HOLD" },
			wantErr: true,
		},
		{
			name:    "Zero quantity",
			mutate:  func(o *Order) { o.Quantity = 0 },
			wantErr: true,
		},
		{
			name:    "Negative quantity",
			mutate:  func(o *Order) { o.Quantity = -10 },
			wantErr: true,
		},
		{
			name:    "Invalid kind",
			mutate:  func(o *Order) { o.Kind = "TRAILING" },
			wantErr: true,
		},
		{
			name: "Limit order without limit price",
			mutate: func(o *Order) {
				o.Kind = OrderKindLimit
			},
			wantErr: true,
		},
		{
			name: "Limit order with limit price",
			mutate: func(o *Order) {
				o.Kind = OrderKindLimit
				o.LimitPrice = optional.Some(50.0)
			},
			wantErr: false,
		},
		{
			name: "Stop order without stop price",
			mutate: func(o *Order) {
				o.Kind = OrderKindStop
			},
			wantErr: true,
		},
		{
			name: "Stop order with stop price",
			mutate: func(o *Order) {
				o.Kind = OrderKindStop
				o.StopPrice = optional.Some(45.0)
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			order := validMarketOrder()
			tt.mutate(&order)

			err := order.Validate()
			if tt.wantErr {
				suite.Require().Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *OrderTestSuite) TestSignedQuantity() {
	buy := Fill{Side: SideBuy, Quantity: 100}
	suite.Equal(100.0, buy.SignedQuantity())

	sell := Fill{Side: SideSell, Quantity: 100}
	suite.Equal(-100.0, sell.SignedQuantity())
}
