package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/urfave/cli/v3"

	"github.com/quantfold/quantfold/cmd/download/clients"
	"github.com/quantfold/quantfold/internal/datasource"
	"github.com/quantfold/quantfold/internal/logger"
)

// downloadAction fetches aggregates from Polygon and writes them into a
// DuckDB database file ready for the simulator.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.String("ticker")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	output := cmd.String("output")
	multiplier := int(cmd.Int("multiplier"))
	timespan := models.Timespan(cmd.String("timespan"))

	client, err := clients.NewPolygonClient()
	if err != nil {
		return err
	}

	log.Printf("Downloading %s from %s to %s (%d %s bars)...",
		ticker, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), multiplier, timespan)

	bars, err := client.Download(ctx, ticker, startDate, endDate, multiplier, timespan)
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	db, err := datasource.NewDuckDBDataSource(output, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitializeTable(); err != nil {
		return err
	}

	if err := db.InsertBars(bars); err != nil {
		return err
	}

	log.Printf("Wrote %d bars to %s", len(bars), output)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical market data into DuckDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Stock ticker symbol",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path to the DuckDB database file to write",
				Value:   "data/market_data.duckdb",
			},
			&cli.IntFlag{
				Name:  "multiplier",
				Usage: "Aggregate bar multiplier",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "timespan",
				Usage: "Aggregate bar timespan (second, minute, hour, day)",
				Value: string(models.Day),
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
