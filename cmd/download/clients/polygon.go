package clients

import (
	"context"
	"os"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"

	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// PolygonClient downloads aggregates from the Polygon REST API.
type PolygonClient struct {
	client *polygon.Client
}

// NewPolygonClient reads POLYGON_API_KEY from the environment.
func NewPolygonClient() (*PolygonClient, error) {
	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeDownloadFailed, "POLYGON_API_KEY is not set")
	}

	return &PolygonClient{client: polygon.New(apiKey)}, nil
}

// Download implements Downloader. Bars are fetched one calendar day at a
// time with a terminal progress bar over the range.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) ([]types.Bar, error) {
	totalDays := int(endDate.Sub(startDate).Hours()/24) + 1
	bar := progressbar.Default(int64(totalDays), "days")

	var bars []types.Bar

	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		params := models.ListAggsParams{
			Ticker:     ticker,
			From:       models.Millis(date),
			To:         models.Millis(date.Add(24 * time.Hour).Add(-1 * time.Second)),
			Multiplier: multiplier,
			Timespan:   timespan,
		}

		iter := c.client.ListAggs(ctx, &params)

		for iter.Next() {
			agg := iter.Item()

			bars = append(bars, types.Bar{
				Symbol: ticker,
				Time:   time.Time(agg.Timestamp),
				Open:   agg.Open,
				High:   agg.High,
				Low:    agg.Low,
				Close:  agg.Close,
				Volume: agg.Volume,
			})
		}

		if iter.Err() != nil {
			return nil, errors.Wrapf(errors.ErrCodeDownloadFailed, iter.Err(),
				"failed to list aggregates for %s on %s", ticker, date.Format("2006-01-02"))
		}

		_ = bar.Add(1)
	}

	return bars, nil
}
