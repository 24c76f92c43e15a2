package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InputRow is one raw point from an uploaded file or the single-entry form.
// Timestamp, Lat, and Lon arrive as text; parsing and validation happen during
// enrichment so a malformed row can still flow through as a failed row.
// Extra holds passthrough columns keyed by their original header names.
type InputRow struct {
	Timestamp string            `json:"timestamp"`
	Lat       string            `json:"lat"`
	Lon       string            `json:"lon"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// NormalizedPoint is a validated coordinate pair at a canonical UTC instant.
// Immutable once created.
type NormalizedPoint struct {
	Instant time.Time
	Lat     float64
	Lon     float64
}

// Observation carries the weather variables for one point/time. Every field is
// independently nullable: an endpoint may fail or lack coverage for the point
// without invalidating the others. Directions keep the convention of their
// source discipline (see the package documentation).
type Observation struct {
	// MatchedTime is the ISO hour the APIs actually returned data for,
	// which may differ from the requested instant by up to half an hour.
	MatchedTime string `json:"isoTime,omitempty"`

	WindSpeedKt    *float64 `json:"windSpeed_kt"`
	WindDirDegFrom *float64 `json:"windDir_deg_from"`

	SigWaveHeightM     *float64 `json:"sigWaveHeight_m"`
	SigWaveDirDegFrom  *float64 `json:"sigWaveDir_deg_from"`
	WindWaveHeightM    *float64 `json:"windWaveHeight_m"`
	WindWaveDirDegFrom *float64 `json:"windWaveDir_deg_from"`
	SwellHeightM       *float64 `json:"swellHeight_m"`
	SwellDirDegFrom    *float64 `json:"swellDir_deg_from"`

	CurrentSpeedKt  *float64 `json:"currentSpeed_kt"`
	CurrentDirDegTo *float64 `json:"currentDir_deg_to"`
}

// Empty reports whether every observation field is null.
func (o Observation) Empty() bool {
	for _, p := range []*float64{
		o.WindSpeedKt, o.WindDirDegFrom,
		o.SigWaveHeightM, o.SigWaveDirDegFrom,
		o.WindWaveHeightM, o.WindWaveDirDegFrom,
		o.SwellHeightM, o.SwellDirDegFrom,
		o.CurrentSpeedKt, o.CurrentDirDegTo,
	} {
		if p != nil {
			return false
		}
	}
	return true
}

// EnrichedRow is the final record for one input row: the original input, the
// normalized point (nil when normalization failed), the merged observation,
// and any row-level error or endpoint warnings. Never mutated after the
// enricher emits it.
type EnrichedRow struct {
	ID          string           `json:"id"`
	Input       InputRow         `json:"input"`
	Point       *NormalizedPoint `json:"point,omitempty"`
	Observation Observation      `json:"observation"`
	Err         string           `json:"error,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// Failed reports whether the row carries a row-level error.
func (r EnrichedRow) Failed() bool { return r.Err != "" }

// ParseCoordinates parses and validates the row's lat/lon text.
// Returns ErrInvalidCoordinate when either value is not a number or is outside
// [-90,90] / [-180,180].
func (r InputRow) ParseCoordinates() (lat, lon float64, err error) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, fmt.Errorf("%w: lat=%q lon=%q", ErrInvalidCoordinate, r.Lat, r.Lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: lat=%g lon=%g", ErrInvalidCoordinate, lat, lon)
	}
	return lat, lon, nil
}

// RowID produces a deterministic ID from the raw row fields. Re-enriching the
// same file yields the same IDs, so downstream consumers can dedupe replays.
func RowID(row InputRow) string {
	input := fmt.Sprintf("%s|%s|%s", row.Timestamp, row.Lat, row.Lon)
	hash := sha256.Sum256([]byte(input))
	return "pt-" + hex.EncodeToString(hash[:8])
}

// Now returns the current time from the package clock.
func Now() time.Time { return clock.Now() }
