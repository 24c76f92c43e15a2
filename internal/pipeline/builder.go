package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/observability"
)

// RowEnricher enriches a single input row. Implemented by Enricher; tests
// substitute fakes.
type RowEnricher interface {
	Enrich(ctx context.Context, row domain.InputRow) domain.EnrichedRow
}

// Builder runs enrichment across a whole table with a bounded worker pool.
// Each row is independent, so workers share nothing; results land in an
// index-addressed slice and output order always equals input order regardless
// of fetch completion order.
type Builder struct {
	enricher RowEnricher
	workers  int
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// NewBuilder creates a Builder. workers < 1 is treated as 1 (sequential).
func NewBuilder(enricher RowEnricher, workers int, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		enricher: enricher,
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one batch has completed.
func (b *Builder) CheckReadiness(_ context.Context) error {
	if !b.ready.Load() {
		return errors.New("no batch completed yet")
	}
	return nil
}

// Build enriches every row of the table and assembles the dataset. Row-level
// problems never abort the batch; the only error returned is context
// cancellation, which abandons the batch as a whole.
func (b *Builder) Build(ctx context.Context, table Table) (*Dataset, error) {
	start := time.Now()
	results := make([]domain.EnrichedRow, len(table.Rows))

	workers := b.workers
	if workers > len(table.Rows) {
		workers = len(table.Rows)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.enricher.Enrich(ctx, table.Rows[i])
			}
		}()
	}

feed:
	for i := range table.Rows {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds := &Dataset{
		ID:           uuid.NewString(),
		Rows:         results,
		ExtraColumns: table.ExtraColumns,
	}

	failed := ds.FailedCount()
	b.metrics.RowsEnriched.Add(float64(len(results)))
	b.metrics.RowsFailed.Add(float64(failed))
	b.metrics.BatchSize.Observe(float64(len(results)))
	b.metrics.BatchDuration.Observe(time.Since(start).Seconds())

	b.ready.Store(true)
	b.metrics.ServiceReady.Set(1)

	b.logger.Info("batch enriched",
		"batch_id", ds.ID,
		"rows", len(results),
		"failed_rows", failed,
		"warnings", ds.WarningCount(),
		"duration", time.Since(start),
	)
	return ds, nil
}
