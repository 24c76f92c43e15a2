package pipeline

import (
	"context"
	"log/slog"

	"github.com/tidewatch/marine-enrich/internal/domain"
)

// Enricher turns one InputRow into an EnrichedRow: normalize the timestamp,
// validate coordinates, fetch the three weather endpoints, convert units, and
// merge. Rows are never dropped: every failure mode produces a row with the
// error recorded on it.
type Enricher struct {
	fetcher     domain.WeatherFetcher
	logger      *slog.Logger
	requireData bool
}

// NewEnricher creates an Enricher. When requireData is set, a row whose three
// endpoint calls all fail gets a row-level error instead of a silent all-null
// observation; either way the row is emitted.
func NewEnricher(fetcher domain.WeatherFetcher, logger *slog.Logger, requireData bool) *Enricher {
	return &Enricher{
		fetcher:     fetcher,
		logger:      logger,
		requireData: requireData,
	}
}

// Enrich processes a single row. The returned row is complete and immutable;
// errors are carried on the row rather than returned so callers can keep
// one-output-row-per-input-row without special cases.
func (e *Enricher) Enrich(ctx context.Context, row domain.InputRow) domain.EnrichedRow {
	out := domain.EnrichedRow{
		ID:          domain.RowID(row),
		Input:       row,
		ProcessedAt: domain.Now(),
	}

	instant, err := domain.NormalizeTimestamp(row.Timestamp)
	if err != nil {
		out.Err = err.Error()
		return out
	}

	lat, lon, err := row.ParseCoordinates()
	if err != nil {
		out.Err = err.Error()
		return out
	}

	pt := domain.NormalizedPoint{Instant: instant, Lat: lat, Lon: lon}
	out.Point = &pt
	out.Observation, out.Warnings = e.fetchObservation(ctx, pt, out.ID)

	if len(out.Warnings) == 3 && out.Observation.Empty() {
		if e.requireData {
			out.Err = domain.ErrAllEndpointsFailed.Error()
		} else {
			out.Warnings = append(out.Warnings, domain.ErrAllEndpointsFailed.Error())
		}
	}
	return out
}

// fetchObservation calls the three endpoints independently and merges their
// samples. A failed endpoint nulls only its own fields and adds a warning;
// the other calls still run.
func (e *Enricher) fetchObservation(ctx context.Context, pt domain.NormalizedPoint, rowID string) (domain.Observation, []string) {
	var obs domain.Observation
	var warnings []string

	warn := func(endpoint string, err error) {
		epErr := &domain.EndpointError{Endpoint: endpoint, Err: err}
		e.logger.Warn("weather endpoint failed",
			"row_id", rowID, "endpoint", endpoint,
			"lat", pt.Lat, "lon", pt.Lon, "error", err)
		warnings = append(warnings, epErr.Error())
	}

	wind, err := e.fetcher.FetchWind(ctx, pt)
	if err != nil {
		warn("forecast", err)
	} else {
		obs.MatchedTime = wind.Time
		obs.WindSpeedKt = wind.SpeedKt
		obs.WindDirDegFrom = wind.DirDegFrom
	}

	waves, err := e.fetcher.FetchWaves(ctx, pt)
	if err != nil {
		warn("marine", err)
	} else {
		if obs.MatchedTime == "" {
			obs.MatchedTime = waves.Time
		}
		obs.SigWaveHeightM = waves.SigHeightM
		obs.SigWaveDirDegFrom = waves.SigDirDegFrom
		obs.WindWaveHeightM = waves.WindWaveHeightM
		obs.WindWaveDirDegFrom = waves.WindWaveDirDegFrom
		obs.SwellHeightM = waves.SwellHeightM
		obs.SwellDirDegFrom = waves.SwellDirDegFrom
	}

	current, err := e.fetcher.FetchCurrent(ctx, pt)
	if err != nil {
		warn("ocean", err)
	} else {
		if obs.MatchedTime == "" {
			obs.MatchedTime = current.Time
		}
		if current.SpeedMps != nil {
			kt := domain.MetersPerSecondToKnots(*current.SpeedMps)
			obs.CurrentSpeedKt = &kt
		}
		// Oceanographic "to" convention, preserved as-is.
		obs.CurrentDirDegTo = current.DirDegTo
	}

	return obs, warnings
}
