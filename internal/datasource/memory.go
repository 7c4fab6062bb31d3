package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// MemoryDataSource serves bars out of a preloaded slice. Used in tests and
// for handing private, immutable history slices to sweep workers.
type MemoryDataSource struct {
	bars []types.Bar
}

// NewMemoryDataSource builds a source from bars, sorted by timestamp.
func NewMemoryDataSource(bars []types.Bar) *MemoryDataSource {
	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &MemoryDataSource{bars: sorted}
}

// Initialize implements DataSource. It is a no-op for the in-memory source.
func (m *MemoryDataSource) Initialize(path string) error {
	return nil
}

// ReadAll implements DataSource.
func (m *MemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if start.IsSome() && bar.Time.Before(start.Unwrap()) {
				continue
			}

			if end.IsSome() && bar.Time.After(end.Unwrap()) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// GetRange implements DataSource.
func (m *MemoryDataSource) GetRange(symbol string, start time.Time, end time.Time) ([]types.Bar, error) {
	var bars []types.Bar

	for _, bar := range m.bars {
		if bar.Symbol != symbol {
			continue
		}

		if bar.Time.Before(start) || !bar.Time.Before(end) {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

// ReadLastData implements DataSource.
func (m *MemoryDataSource) ReadLastData(symbol string) (types.Bar, error) {
	for i := len(m.bars) - 1; i >= 0; i-- {
		if m.bars[i].Symbol == symbol {
			return m.bars[i], nil
		}
	}

	return types.Bar{}, errors.Newf(errors.ErrCodeDataUnavailable, "no data for symbol %s", symbol)
}

// Count implements DataSource.
func (m *MemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		count++
	}

	return count, nil
}

// Symbols implements DataSource.
func (m *MemoryDataSource) Symbols() ([]string, error) {
	seen := make(map[string]bool)

	var symbols []string

	for _, bar := range m.bars {
		if !seen[bar.Symbol] {
			seen[bar.Symbol] = true

			symbols = append(symbols, bar.Symbol)
		}
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Close implements DataSource.
func (m *MemoryDataSource) Close() error {
	return nil
}
