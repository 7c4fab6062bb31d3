package clients

import (
	"context"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/quantfold/quantfold/internal/types"
)

// Downloader fetches aggregate bars for one ticker over a date range.
type Downloader interface {
	// Download returns bars in timestamp order, for example:
	// Download(ctx, "AAPL", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Day)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) ([]types.Bar, error)
}
