package domain

import "context"

// WindSample holds the forecast endpoint's variables for one hour.
// Speed is already in knots (requested that way from the API).
type WindSample struct {
	Time       string
	SpeedKt    *float64
	DirDegFrom *float64
}

// WaveSample holds the marine endpoint's variables for one hour.
// Heights in meters, directions in meteorological "from" degrees.
type WaveSample struct {
	Time               string
	SigHeightM         *float64
	SigDirDegFrom      *float64
	WindWaveHeightM    *float64
	WindWaveDirDegFrom *float64
	SwellHeightM       *float64
	SwellDirDegFrom    *float64
}

// CurrentSample holds the ocean endpoint's variables for one hour.
// Speed in m/s (converted to knots during enrichment), direction in
// oceanographic "to" degrees.
type CurrentSample struct {
	Time     string
	SpeedMps *float64
	DirDegTo *float64
}

// WeatherFetcher retrieves the three endpoint slices for a point. Each method
// fails independently; an error from one never implies anything about the
// others.
type WeatherFetcher interface {
	FetchWind(ctx context.Context, pt NormalizedPoint) (WindSample, error)
	FetchWaves(ctx context.Context, pt NormalizedPoint) (WaveSample, error)
	FetchCurrent(ctx context.Context, pt NormalizedPoint) (CurrentSample, error)
}
