// Package ledger owns cash and open positions for one simulation run. All
// position state changes flow through ApplyFill; nothing else mutates a
// position.
package ledger

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// roundTrip accumulates the costs and realized P&L of one open-to-close
// cycle so the emitted Trade covers the full round trip.
type roundTrip struct {
	entryTime    time.Time
	entryQty     float64
	realized     decimal.Decimal
	commission   float64
	slippageCost float64
}

// Ledger tracks cash, open positions, the trade log, and the equity curve.
type Ledger struct {
	cash           float64
	initialCapital float64
	positions      map[string]*types.Position
	open           map[string]*roundTrip
	trades         []types.Trade
	equity         []types.EquityCurvePoint
	log            *logger.Logger

	totalCommission   float64
	totalSlippageCost float64
}

// NewLedger creates a ledger with the given starting cash.
func NewLedger(initialCapital float64, log *logger.Logger) (*Ledger, error) {
	if initialCapital <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"initial capital must be positive, got %f", initialCapital)
	}

	return &Ledger{
		cash:           initialCapital,
		initialCapital: initialCapital,
		positions:      make(map[string]*types.Position),
		open:           make(map[string]*roundTrip),
		trades:         nil,
		equity:         nil,
		log:            log,
	}, nil
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// InitialCapital returns the starting cash balance.
func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital
}

// ApplyFill is the single position-mutation entry point. It debits or
// credits cash, updates the position for the fill's symbol, realizes P&L on
// reductions, and emits a Trade when the position returns to flat.
//
// A buy whose cost exceeds available cash returns ErrCodeInsufficientFunds
// and changes no state.
func (l *Ledger) ApplyFill(fill types.Fill) error {
	if fill.Quantity <= 0 || fill.Price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidOrder,
			"fill must have positive quantity and price: qty=%f price=%f", fill.Quantity, fill.Price)
	}

	notional, _ := decimal.NewFromFloat(fill.Quantity).
		Mul(decimal.NewFromFloat(fill.Price)).
		Float64()

	if fill.Side == types.SideBuy {
		cost := notional + fill.Commission
		if cost > l.cash {
			return errors.Newf(errors.ErrCodeInsufficientFunds,
				"buy cost %.2f exceeds cash %.2f", cost, l.cash)
		}

		l.cash -= cost
	} else {
		l.cash += notional - fill.Commission
	}

	l.totalCommission += fill.Commission
	l.totalSlippageCost += fill.SlippageCost

	l.applyToPosition(fill)

	return nil
}

func (l *Ledger) applyToPosition(fill types.Fill) {
	signedQty := fill.SignedQuantity()

	position, exists := l.positions[fill.Symbol]
	if !exists || position.IsFlat() {
		l.openPosition(fill, signedQty)

		return
	}

	trip := l.open[fill.Symbol]
	trip.commission += fill.Commission
	trip.slippageCost += fill.SlippageCost

	sameDirection := (position.Quantity > 0) == (signedQty > 0)
	if sameDirection {
		// Weighted average of old and incoming notional.
		oldNotional := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(position.AverageEntryPrice))
		newNotional := decimal.NewFromFloat(signedQty).Mul(decimal.NewFromFloat(fill.Price))
		totalQty := position.Quantity + signedQty

		avg, _ := oldNotional.Add(newNotional).
			Div(decimal.NewFromFloat(totalQty)).
			Float64()

		position.Quantity = totalQty
		position.AverageEntryPrice = avg
		position.LastPrice = fill.Price
		trip.entryQty += math.Abs(signedQty)

		return
	}

	// Reducing or reversing.
	reduced := math.Min(math.Abs(signedQty), math.Abs(position.Quantity))

	direction := 1.0
	if position.Quantity < 0 {
		direction = -1.0
	}

	realized := decimal.NewFromFloat(fill.Price).
		Sub(decimal.NewFromFloat(position.AverageEntryPrice)).
		Mul(decimal.NewFromFloat(reduced)).
		Mul(decimal.NewFromFloat(direction))

	trip.realized = trip.realized.Add(realized)

	realizedF, _ := realized.Float64()
	position.RealizedPnL += realizedF
	position.Quantity += signedQty
	position.LastPrice = fill.Price

	if position.Quantity == 0 {
		l.closePosition(position, trip, fill)

		return
	}

	if (position.Quantity > 0) != (direction > 0) {
		// Reversal: close the old round trip, then open the remainder as a
		// fresh position at the fill price.
		remainder := position.Quantity
		position.Quantity = 0

		l.closePosition(position, trip, fill)

		// The reversing fill's costs already belong to the trip it closed;
		// the reopened trip starts with none.
		reopened := fill
		reopened.Quantity = math.Abs(remainder)
		reopened.Commission = 0
		reopened.SlippageCost = 0
		l.openPosition(reopened, remainder)
	}
}

func (l *Ledger) openPosition(fill types.Fill, signedQty float64) {
	l.positions[fill.Symbol] = &types.Position{
		Symbol:            fill.Symbol,
		Quantity:          signedQty,
		AverageEntryPrice: fill.Price,
		RealizedPnL:       l.carriedRealized(fill.Symbol),
		UnrealizedPnL:     0,
		LastPrice:         fill.Price,
		OpenedAt:          fill.Time,
	}
	l.open[fill.Symbol] = &roundTrip{
		entryTime:    fill.Time,
		entryQty:     math.Abs(signedQty),
		realized:     decimal.Zero,
		commission:   fill.Commission,
		slippageCost: fill.SlippageCost,
	}
}

// carriedRealized preserves the realized P&L shown on a symbol's position
// across round trips within one run.
func (l *Ledger) carriedRealized(symbol string) float64 {
	if p, ok := l.positions[symbol]; ok {
		return p.RealizedPnL
	}

	return 0
}

func (l *Ledger) closePosition(position *types.Position, trip *roundTrip, fill types.Fill) {
	pnl, _ := trip.realized.Float64()

	trade := types.Trade{
		ID:           uuid.New().String(),
		Symbol:       fill.Symbol,
		EntryTime:    trip.entryTime,
		EntryPrice:   position.AverageEntryPrice,
		ExitTime:     fill.Time,
		ExitPrice:    fill.Price,
		Quantity:     trip.entryQty,
		PnL:          pnl,
		Commission:   trip.commission,
		SlippageCost: trip.slippageCost,
	}
	l.trades = append(l.trades, trade)

	position.AverageEntryPrice = 0
	position.UnrealizedPnL = 0

	delete(l.open, fill.Symbol)

	if l.log != nil {
		l.log.Debug("Round trip closed",
			zap.String("symbol", trade.Symbol),
			zap.Float64("pnl", trade.PnL),
			zap.Float64("quantity", trade.Quantity),
		)
	}
}

// Revalue recomputes a position's unrealized P&L against the current price.
// Called once per bar, independent of fills.
func (l *Ledger) Revalue(symbol string, price float64) {
	position, ok := l.positions[symbol]
	if !ok || position.IsFlat() {
		return
	}

	unrealized, _ := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(position.AverageEntryPrice)).
		Mul(decimal.NewFromFloat(position.Quantity)).
		Float64()

	position.UnrealizedPnL = unrealized
	position.LastPrice = price
}

// TotalValue is cash plus the market value of all open positions at their
// last known prices.
func (l *Ledger) TotalValue() float64 {
	total := decimal.NewFromFloat(l.cash)

	for _, position := range l.positions {
		if position.IsFlat() {
			continue
		}

		total = total.Add(decimal.NewFromFloat(position.MarketValue()))
	}

	value, _ := total.Float64()

	return value
}

// SampleEquity appends one equity curve point at the given timestamp.
func (l *Ledger) SampleEquity(t time.Time) types.EquityCurvePoint {
	point := types.EquityCurvePoint{Time: t, Value: l.TotalValue()}
	l.equity = append(l.equity, point)

	return point
}

// EquityCurve returns the sampled equity curve.
func (l *Ledger) EquityCurve() []types.EquityCurvePoint {
	return l.equity
}

// Trades returns the closed round-trip trade log.
func (l *Ledger) Trades() []types.Trade {
	return l.trades
}

// Position returns the position for a symbol, flat if none exists.
func (l *Ledger) Position(symbol string) types.Position {
	if p, ok := l.positions[symbol]; ok {
		return *p
	}

	return types.Position{Symbol: symbol}
}

// OpenPositions returns all positions with non-zero quantity.
func (l *Ledger) OpenPositions() []types.Position {
	var open []types.Position

	for _, p := range l.positions {
		if !p.IsFlat() {
			open = append(open, *p)
		}
	}

	return open
}

// TotalCommission returns commissions accumulated across all fills.
func (l *Ledger) TotalCommission() float64 {
	return l.totalCommission
}

// TotalSlippageCost returns slippage costs accumulated across all fills.
func (l *Ledger) TotalSlippageCost() float64 {
	return l.totalSlippageCost
}
