// Package series provides an ordered-by-timestamp container for OHLCV bars
// with explicit by-index and by-timestamp accessors, range slicing, and
// history-up-to lookups.
package series

import (
	"sort"
	"time"

	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Series is an immutable view over bars of a single symbol ordered by
// timestamp. Sub-series returned by Range and UpTo share the underlying
// storage; callers must not mutate bars.
type Series struct {
	bars []types.Bar
}

// New builds a Series from bars, validating timestamp ordering.
// Returns ErrCodeDataOutOfOrder if bars are not non-decreasing in time.
func New(bars []types.Bar) (*Series, error) {
	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Before(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeDataOutOfOrder,
				"bar %d (%s) is earlier than bar %d (%s)",
				i, bars[i].Time, i-1, bars[i-1].Time)
		}
	}

	return &Series{bars: bars}, nil
}

// NewSorted builds a Series from bars, sorting them by timestamp first.
func NewSorted(bars []types.Bar) *Series {
	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	return &Series{bars: sorted}
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.bars)
}

// At returns the bar at index i.
func (s *Series) At(i int) types.Bar {
	return s.bars[i]
}

// Bars returns the underlying bars. The slice must not be mutated.
func (s *Series) Bars() []types.Bar {
	return s.bars
}

// First returns the first bar. The second return value is false when the
// series is empty.
func (s *Series) First() (types.Bar, bool) {
	if len(s.bars) == 0 {
		return types.Bar{}, false
	}

	return s.bars[0], true
}

// Last returns the last bar. The second return value is false when the
// series is empty.
func (s *Series) Last() (types.Bar, bool) {
	if len(s.bars) == 0 {
		return types.Bar{}, false
	}

	return s.bars[len(s.bars)-1], true
}

// lowerBound returns the first index i where bars[i].Time >= t.
func (s *Series) lowerBound(t time.Time) int {
	return sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Time.Before(t)
	})
}

// upperBound returns the first index i where bars[i].Time > t.
func (s *Series) upperBound(t time.Time) int {
	return sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Time.After(t)
	})
}

// AtTime returns the bar whose timestamp equals t exactly. The second
// return value is false when no such bar exists.
func (s *Series) AtTime(t time.Time) (types.Bar, bool) {
	i := s.lowerBound(t)
	if i < len(s.bars) && s.bars[i].Time.Equal(t) {
		return s.bars[i], true
	}

	return types.Bar{}, false
}

// Range returns the sub-series with start <= bar.Time < end (half-open).
func (s *Series) Range(start, end time.Time) *Series {
	lo := s.lowerBound(start)
	hi := s.lowerBound(end)

	return &Series{bars: s.bars[lo:hi]}
}

// UpTo returns the sub-series of all bars with bar.Time <= t, the
// "history so far" view handed to signal generators.
func (s *Series) UpTo(t time.Time) *Series {
	return &Series{bars: s.bars[:s.upperBound(t)]}
}

// Closes returns the close prices of all bars.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, bar := range s.bars {
		closes[i] = bar.Close
	}

	return closes
}
