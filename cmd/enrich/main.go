// Command enrich runs the weather enrichment pipeline offline over a single
// voyage file. It reads a CSV or XLSX table of timestamp/lat/lon points,
// fetches wind, wave, swell, and current observations for every row, and
// writes the enriched table as CSV.
//
// Usage:
//
//	go run ./cmd/enrich -in voyage.csv -out enriched.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidewatch/marine-enrich/internal/adapter/openmeteo"
	"github.com/tidewatch/marine-enrich/internal/config"
	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/observability"
	"github.com/tidewatch/marine-enrich/internal/pipeline"
)

func main() {
	in := flag.String("in", "", "input CSV or XLSX file ('-' for stdin CSV)")
	out := flag.String("out", "", "output CSV file (defaults to stdout)")
	workers := flag.Int("workers", 0, "concurrent rows in flight (defaults to WORKER_COUNT)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "enrich: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if workers > 0 {
		cfg.WorkerCount = workers
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	table, err := readTable(inPath)
	if err != nil {
		return err
	}

	var fetcher domain.WeatherFetcher = openmeteo.NewClient(cfg, logger, metrics)
	if cfg.CacheSize > 0 {
		fetcher = openmeteo.NewCachedFetcher(fetcher, cfg.CacheSize, metrics)
	}
	enricher := pipeline.NewEnricher(fetcher, logger, cfg.RequireData)
	builder := pipeline.NewBuilder(enricher, cfg.WorkerCount, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := builder.Build(ctx, table)
	if err != nil {
		return fmt.Errorf("enriching %d rows: %w", len(table.Rows), err)
	}

	if err := writeDataset(outPath, ds); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "enriched %d rows (%d failed, %d with warnings)\n",
		len(ds.Rows), ds.FailedCount(), ds.WarningCount())
	return nil
}

func readTable(path string) (pipeline.Table, error) {
	if path == "-" {
		return pipeline.DecodeCSV(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return pipeline.Table{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return pipeline.DecodeXLSX(f)
	}
	return pipeline.DecodeCSV(f)
}

func writeDataset(path string, ds *pipeline.Dataset) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Error("closing output", "error", err)
			}
		}()
		w = f
	}
	return pipeline.EncodeCSV(w, ds)
}
