package strategy

import (
	"time"

	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Pick is one row of an externally supplied picks list: a symbol expected
// to realize a given return starting at a given date.
type Pick struct {
	Date           time.Time `yaml:"date" json:"date" csv:"date"`
	Symbol         string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	RealizedReturn float64   `yaml:"realized_return" json:"realized_return" csv:"realized_return"`
}

// Picks replays a fixed external picks list in place of a live signal
// generator: a buy order is emitted on each bar whose date matches a pick
// for the symbol.
type Picks struct {
	quantity float64
	byDate   map[string][]Pick
}

// NewPicks builds the strategy from a picks list and a per-pick quantity.
func NewPicks(picks []Pick, quantity float64) (Strategy, error) {
	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"picks quantity must be positive, got %f", quantity)
	}

	byDate := make(map[string][]Pick)
	for _, pick := range picks {
		key := pick.Date.Format("2006-01-02")
		byDate[key] = append(byDate[key], pick)
	}

	return &Picks{quantity: quantity, byDate: byDate}, nil
}

// Name implements Strategy.
func (p *Picks) Name() string {
	return "picks"
}

// Generate implements Strategy.
func (p *Picks) Generate(symbol string, history *series.Series) []types.Order {
	last, ok := history.Last()
	if !ok {
		return nil
	}

	var orders []types.Order

	for _, pick := range p.byDate[last.Time.Format("2006-01-02")] {
		if pick.Symbol != symbol {
			continue
		}

		orders = append(orders, types.Order{
			Symbol:      symbol,
			Side:        types.SideBuy,
			Quantity:    p.quantity,
			Kind:        types.OrderKindMarket,
			RequestedAt: last.Time,
			Reason:      types.OrderReasonStrategy,
		})
	}

	return orders
}
