package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/quantfold/quantfold/internal/backtest/commission"
	"github.com/quantfold/quantfold/internal/backtest/ledger"
	"github.com/quantfold/quantfold/internal/backtest/slippage"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"go.uber.org/zap"
)

// ExecutionSimulator turns intended orders into fills against the current
// bar, applying the active slippage and commission models and enforcing
// cash sufficiency. Fills are routed into the ledger, the only component
// that mutates position state.
type ExecutionSimulator struct {
	slippage   slippage.Model
	commission commission.Model
	ledger     *ledger.Ledger
	log        *logger.Logger
}

// NewExecutionSimulator wires the active models to a ledger.
func NewExecutionSimulator(slippageModel slippage.Model, commissionModel commission.Model, book *ledger.Ledger, log *logger.Logger) *ExecutionSimulator {
	return &ExecutionSimulator{
		slippage:   slippageModel,
		commission: commissionModel,
		ledger:     book,
		log:        log,
	}
}

// Execute consumes an order exactly once: it either returns the fill
// applied to the ledger or an error describing the rejection. Rejections
// leave no state change.
//
// Market orders fill at the bar close shifted by slippage. Limit buys fill
// when the bar's low reaches the limit; limit sells when the bar's high
// does. Stop orders trigger against the bar range and fill at the stop
// price.
func (e *ExecutionSimulator) Execute(order types.Order, bar types.Bar) (types.Fill, error) {
	if err := order.Validate(); err != nil {
		return types.Fill{}, err
	}

	quoted, ok := e.quotedPrice(order, bar)
	if !ok {
		return types.Fill{}, errors.Newf(errors.ErrCodeOrderRejected,
			"%s order for %s not triggered by bar at %s",
			order.Kind, order.Symbol, bar.Time.Format("2006-01-02"))
	}

	fillPrice := e.slippage.Apply(quoted, order.Side, order.Quantity, bar)
	fee := e.commission.Calculate(order.Quantity, fillPrice)
	slippageCost := math.Abs(fillPrice-quoted) * order.Quantity

	if order.Side == types.SideBuy {
		cost := order.Quantity*fillPrice + fee
		if cost > e.ledger.Cash() {
			if e.log != nil {
				e.log.Debug("Buy order rejected",
					zap.String("symbol", order.Symbol),
					zap.Float64("cost", cost),
					zap.Float64("cash", e.ledger.Cash()),
				)
			}

			return types.Fill{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"buy cost %.2f exceeds cash %.2f", cost, e.ledger.Cash())
		}
	}

	orderID := order.ID
	if orderID == "" {
		orderID = uuid.New().String()
	}

	fill := types.Fill{
		OrderID:      orderID,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Quantity:     order.Quantity,
		Price:        fillPrice,
		Commission:   fee,
		SlippageCost: slippageCost,
		Time:         bar.Time,
	}

	if err := e.ledger.ApplyFill(fill); err != nil {
		return types.Fill{}, err
	}

	return fill, nil
}

// quotedPrice resolves the pre-slippage price for the order against the
// bar, or reports that the order does not trigger.
func (e *ExecutionSimulator) quotedPrice(order types.Order, bar types.Bar) (float64, bool) {
	switch order.Kind {
	case types.OrderKindMarket:
		return bar.Close, true

	case types.OrderKindLimit:
		limit := order.LimitPrice.Unwrap()
		if order.Side == types.SideBuy && bar.Low <= limit {
			return math.Min(limit, bar.Close), true
		}

		if order.Side == types.SideSell && bar.High >= limit {
			return math.Max(limit, bar.Close), true
		}

		return 0, false

	case types.OrderKindStop:
		stop := order.StopPrice.Unwrap()
		if order.Side == types.SideSell && bar.Low <= stop {
			return stop, true
		}

		if order.Side == types.SideBuy && bar.High >= stop {
			return stop, true
		}

		return 0, false
	}

	return 0, false
}
