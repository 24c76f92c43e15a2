// Package domain models marine weather enrichment of voyage point lists.
//
// # Data Source
//
// Observations come from three Open-Meteo API families, each covering a
// different slice of the sea state:
//
//	forecast  →  wind speed and direction at 10 m
//	marine    →  significant wave, wind-wave, and swell height/direction
//	ocean     →  surface current speed and direction
//
// Each endpoint is queried for the UTC day containing the requested instant
// and the closest hourly sample is selected. Endpoints fail independently: a
// marine outage nulls the wave fields of a row without touching wind or
// current.
//
// # Unit Conventions
//
// Speeds are reported in knots. Wind is requested from the forecast API
// directly in knots; ocean current arrives in m/s and is converted
// (1 m/s = 1.9438444924 kt).
//
// Directions follow the convention of their source discipline and are never
// reinterpreted:
//
//	Wind, wave, swell:  meteorological "from" (degrees the motion originates from)
//	Current:            oceanographic "to" (degrees the flow is heading toward)
//
// The field names carry the convention (WindDirDegFrom vs CurrentDirDegTo) so
// the two can never be confused for one another.
//
// Significant wave height (Hs) is the average height of the highest third of
// waves in the sampling period, the standard marine forecast measure.
//
// # Timestamps
//
// Input timestamps are free-form text. [NormalizeTimestamp] tries an explicit
// ordered list of layouts and the first successful parse wins; values without
// a zone offset are taken as UTC. Date-only inputs default to midnight UTC.
//
// # Row IDs
//
// Row IDs are deterministic SHA-256 hashes of timestamp|lat|lon. Re-enriching
// the same input file produces the same IDs, which keeps downstream consumers
// (the Kafka sink in particular) idempotent across reruns. See [RowID].
package domain
