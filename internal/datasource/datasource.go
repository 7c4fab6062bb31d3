// Package datasource supplies ordered OHLCV history to the simulation core.
// All I/O happens here, before simulation begins; the engine itself only
// ever sees in-memory bars.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// DataSource provides ordered, timestamp-indexed bar history per symbol.
type DataSource interface {
	// Initialize loads market data from the given path (CSV or parquet).
	Initialize(path string) error
	// ReadAll yields all bars between start and end in timestamp order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// GetRange returns all bars for symbol with start <= time < end.
	GetRange(symbol string, start time.Time, end time.Time) ([]types.Bar, error)
	// ReadLastData returns the most recent bar for a symbol.
	ReadLastData(symbol string) (types.Bar, error)
	// Count returns the number of bars between start and end.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Symbols returns the distinct symbols present in the source.
	Symbols() ([]string, error)
	// Close releases any resources held by the source.
	Close() error
}

// LoadSeries fetches the full history for a symbol in [start, end) once and
// returns it as an in-memory series. This is the single I/O boundary the
// simulation core depends on.
func LoadSeries(ds DataSource, symbol string, start, end time.Time) (*series.Series, error) {
	bars, err := ds.GetRange(symbol, start, end)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable,
			"no history for %s between %s and %s",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return series.New(bars)
}
