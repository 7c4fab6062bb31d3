package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents current holdings of one symbol. Quantity is signed;
// a zero quantity means the position is flat and AverageEntryPrice is not
// meaningful.
type Position struct {
	Symbol            string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity          float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	AverageEntryPrice float64   `yaml:"average_entry_price" json:"average_entry_price" csv:"average_entry_price"`
	RealizedPnL       float64   `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
	UnrealizedPnL     float64   `yaml:"unrealized_pnl" json:"unrealized_pnl" csv:"unrealized_pnl"`
	LastPrice         float64   `yaml:"last_price" json:"last_price" csv:"last_price"`
	OpenedAt          time.Time `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
}

// IsFlat reports whether the position holds no quantity.
func (p *Position) IsFlat() bool {
	return p.Quantity == 0
}

// MarketValue returns quantity times the last known price.
func (p *Position) MarketValue() float64 {
	value, _ := decimal.NewFromFloat(p.Quantity).
		Mul(decimal.NewFromFloat(p.LastPrice)).
		Float64()

	return value
}

// Trade is one closed round trip, created when a position's quantity
// returns to zero. Immutable once appended to the trade log.
type Trade struct {
	ID           string    `yaml:"id" json:"id" csv:"id"`
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	EntryTime    time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryPrice   float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitTime     time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitPrice    float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Quantity     float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	PnL          float64   `yaml:"pnl" json:"pnl" csv:"pnl"`
	Commission   float64   `yaml:"commission" json:"commission" csv:"commission"`
	SlippageCost float64   `yaml:"slippage_cost" json:"slippage_cost" csv:"slippage_cost"`
}

// Return is the round-trip return relative to the entry notional.
func (t *Trade) Return() float64 {
	if t.EntryPrice == 0 || t.Quantity == 0 {
		return 0
	}

	return t.PnL / (t.EntryPrice * t.Quantity)
}
