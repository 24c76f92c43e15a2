package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidewatch/marine-enrich/internal/adapter/httpapi"
	kafkaadapter "github.com/tidewatch/marine-enrich/internal/adapter/kafka"
	"github.com/tidewatch/marine-enrich/internal/adapter/openmeteo"
	"github.com/tidewatch/marine-enrich/internal/config"
	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/observability"
	"github.com/tidewatch/marine-enrich/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var fetcher domain.WeatherFetcher = openmeteo.NewClient(cfg, logger, metrics)
	if cfg.CacheSize > 0 {
		fetcher = openmeteo.NewCachedFetcher(fetcher, cfg.CacheSize, metrics)
		logger.Info("weather cache enabled", "max_entries", cfg.CacheSize)
	}

	enricher := pipeline.NewEnricher(fetcher, logger, cfg.RequireData)
	builder := pipeline.NewBuilder(enricher, cfg.WorkerCount, logger, metrics)

	// Kafka sink is feature-flagged via KAFKA_ENABLED.
	var sink httpapi.RowSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		sink = writer
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, builder, enricher, builder, sink, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
