package series

import (
	"time"

	"github.com/quantfold/quantfold/pkg/errors"
)

// Window is one walk-forward step boundary: an in-sample segment followed
// immediately by an out-of-sample segment. Boundaries are half-open
// [start, end) intervals in time.
type Window struct {
	Index          int
	InSampleStart  time.Time
	InSampleEnd    time.Time
	OutSampleStart time.Time
	OutSampleEnd   time.Time
}

// GenerateWindows yields walk-forward window boundaries over the series:
// in-sample of isDays, out-of-sample of oosDays immediately after, with the
// start advanced by stepDays each iteration. stepDays smaller than oosDays
// produces overlapping test windows. Generation stops when the combined
// window no longer fits inside the available history.
//
// Returns ErrCodeInvalidWindowSize when the parameters are non-positive or
// the first combined window does not fit.
func GenerateWindows(s *Series, isDays, oosDays, stepDays int) ([]Window, error) {
	if isDays <= 0 || oosDays <= 0 || stepDays <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindowSize,
			"window sizes must be positive: in_sample=%d out_sample=%d step=%d",
			isDays, oosDays, stepDays)
	}

	first, ok := s.First()
	if !ok {
		return nil, errors.New(errors.ErrCodeDataUnavailable, "empty series")
	}

	last, _ := s.Last()

	var windows []Window

	start := first.Time

	for index := 0; ; index++ {
		isEnd := start.AddDate(0, 0, isDays)
		oosEnd := isEnd.AddDate(0, 0, oosDays)

		if oosEnd.After(last.Time.Add(time.Nanosecond)) {
			break
		}

		windows = append(windows, Window{
			Index:          index,
			InSampleStart:  start,
			InSampleEnd:    isEnd,
			OutSampleStart: isEnd,
			OutSampleEnd:   oosEnd,
		})

		start = start.AddDate(0, 0, stepDays)
	}

	if len(windows) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindowSize,
			"combined window of %d+%d days does not fit inside available history (%s to %s)",
			isDays, oosDays, first.Time.Format("2006-01-02"), last.Time.Format("2006-01-02"))
	}

	return windows, nil
}
