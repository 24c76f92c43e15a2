package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default Open-Meteo endpoints. Overridable for tests and self-hosted mirrors.
const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultMarineURL   = "https://marine-api.open-meteo.com/v1/marine"
	DefaultOceanURL    = "https://ocean-api.open-meteo.com/v1/ocean"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open-Meteo configuration. APIKey is optional: the free tier needs none.
	APIKey      string
	ForecastURL string
	MarineURL   string
	OceanURL    string
	HTTPTimeout time.Duration
	CacheSize   int

	// Enrichment configuration.
	WorkerCount int
	RequireData bool

	// Optional Kafka sink for enriched rows.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	httpTimeout, err := parseDuration("OPENMETEO_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKER_COUNT", 4)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("CACHE_SIZE", 512)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		APIKey:      os.Getenv("OPENMETEO_API_KEY"),
		ForecastURL: envOrDefault("FORECAST_URL", DefaultForecastURL),
		MarineURL:   envOrDefault("MARINE_URL", DefaultMarineURL),
		OceanURL:    envOrDefault("OCEAN_URL", DefaultOceanURL),
		HTTPTimeout: httpTimeout,
		CacheSize:   cacheSize,

		WorkerCount: workers,
		RequireData: os.Getenv("REQUIRE_DATA") == "true",

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   splitCSV(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "enriched-marine-weather"),
	}

	if cfg.ForecastURL == "" || cfg.MarineURL == "" || cfg.OceanURL == "" {
		return nil, errors.New("endpoint URLs must not be empty")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
