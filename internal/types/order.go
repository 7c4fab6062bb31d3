package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/pkg/errors"
)

type Side string

type OrderKind string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindStop   OrderKind = "STOP"
)

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

const (
	OrderReasonStrategy          string = "strategy"
	OrderReasonStopLoss          string = "stop_loss"
	OrderReasonPyramid           string = "pyramid"
	OrderReasonRebalance         string = "rebalance"
	OrderReasonInsufficientFunds string = "insufficient_funds"
)

// Order is an intended trade produced by a signal generator. It is consumed
// exactly once by the execution simulator, which either fills or rejects it.
type Order struct {
	ID          string                  `yaml:"id" json:"id" csv:"id"`
	Symbol      string                  `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side        Side                    `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity    float64                 `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	Kind        OrderKind               `yaml:"kind" json:"kind" csv:"kind" validate:"required,oneof=MARKET LIMIT STOP"`
	LimitPrice  optional.Option[float64] `yaml:"limit_price" json:"limit_price" csv:"limit_price"`
	StopPrice   optional.Option[float64] `yaml:"stop_price" json:"stop_price" csv:"stop_price"`
	RequestedAt time.Time               `yaml:"requested_at" json:"requested_at" csv:"requested_at"`
	Reason      string                  `yaml:"reason" json:"reason" csv:"reason"`
}

// Fill is the realized outcome of an accepted order: the price actually
// executed at after slippage, plus the commission charged on the fill.
type Fill struct {
	OrderID      string    `yaml:"order_id" json:"order_id" csv:"order_id"`
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side         Side      `yaml:"side" json:"side" csv:"side"`
	Quantity     float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price        float64   `yaml:"price" json:"price" csv:"price"`
	Commission   float64   `yaml:"commission" json:"commission" csv:"commission"`
	SlippageCost float64   `yaml:"slippage_cost" json:"slippage_cost" csv:"slippage_cost"`
	Time         time.Time `yaml:"time" json:"time" csv:"time"`
}

// SignedQuantity returns the fill quantity signed by side: positive for
// buys, negative for sells.
func (f Fill) SignedQuantity() float64 {
	if f.Side == SideSell {
		return -f.Quantity
	}

	return f.Quantity
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	if o.Kind == OrderKindLimit && o.LimitPrice.IsNone() {
		return errors.New(errors.ErrCodeInvalidOrder, "limit order without limit price")
	}

	if o.Kind == OrderKindStop && o.StopPrice.IsNone() {
		return errors.New(errors.ErrCodeInvalidOrder, "stop order without stop price")
	}

	return nil
}
