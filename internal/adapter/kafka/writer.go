package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/tidewatch/marine-enrich/internal/config"
	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/observability"
	"github.com/tidewatch/marine-enrich/internal/pipeline"
)

// Writer publishes enriched rows to the sink Kafka topic. It implements
// httpapi.RowSink and is optional: the service runs without it when no sink
// is configured.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// PublishDataset serializes and publishes every row of a dataset in a single
// WriteMessages call. Row IDs are deterministic, so replayed batches land on
// the same keys and downstream consumers can dedupe.
func (w *Writer) PublishDataset(ctx context.Context, ds *pipeline.Dataset) error {
	if len(ds.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(ds.Rows))
	for i := range ds.Rows {
		msg, err := rowMessage(ds.ID, ds.Rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write sink messages: %w", err)
	}
	w.metrics.SinkMessages.Add(float64(len(msgs)))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// rowMessage marshals an enriched row into a Kafka message keyed by row ID.
func rowMessage(batchID string, row domain.EnrichedRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enriched row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "batch_id", Value: []byte(batchID)},
			{Key: "processed_at", Value: []byte(row.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
