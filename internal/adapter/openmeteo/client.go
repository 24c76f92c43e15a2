package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/tidewatch/marine-enrich/internal/config"
	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/observability"
)

// Endpoint labels used in errors, logs, and metrics.
const (
	endpointForecast = "forecast"
	endpointMarine   = "marine"
	endpointOcean    = "ocean"
)

const (
	forecastVars = "windspeed_10m,winddirection_10m"
	marineVars   = "wave_height,wave_direction,wind_wave_height,wind_wave_direction,swell_wave_height,swell_wave_direction"
	oceanVars    = "current_speed,current_direction"
	oceanUVVars  = "current_u,current_v"
)

// Client implements domain.WeatherFetcher against the Open-Meteo forecast,
// marine, and ocean APIs.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	forecastURL string
	marineURL   string
	oceanURL    string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewClient creates an Open-Meteo client from service configuration.
// An empty API key is valid: the free tier requires none.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		forecastURL: cfg.ForecastURL,
		marineURL:   cfg.MarineURL,
		oceanURL:    cfg.OceanURL,
		logger:      logger,
		metrics:     metrics,
	}
}

// FetchWind retrieves 10 m wind speed and direction from the forecast API.
// Speed is requested directly in knots.
func (c *Client) FetchWind(ctx context.Context, pt domain.NormalizedPoint) (domain.WindSample, error) {
	params := c.dayParams(pt, forecastVars)
	params.Set("windspeed_unit", "kn")

	resp, err := c.doRequest(ctx, endpointForecast, c.forecastURL, params)
	if err != nil {
		return domain.WindSample{}, err
	}

	h := resp.Hourly
	i, ok := pickIndex(h.Time, domain.TargetHour(pt.Instant))
	if !ok {
		return domain.WindSample{}, nil
	}
	return domain.WindSample{
		Time:       h.Time[i],
		SpeedKt:    at(h.WindSpeed10m, i),
		DirDegFrom: at(h.WindDirection10m, i),
	}, nil
}

// FetchWaves retrieves significant wave, wind-wave, and swell height/direction
// from the marine API.
func (c *Client) FetchWaves(ctx context.Context, pt domain.NormalizedPoint) (domain.WaveSample, error) {
	resp, err := c.doRequest(ctx, endpointMarine, c.marineURL, c.dayParams(pt, marineVars))
	if err != nil {
		return domain.WaveSample{}, err
	}

	h := resp.Hourly
	i, ok := pickIndex(h.Time, domain.TargetHour(pt.Instant))
	if !ok {
		return domain.WaveSample{}, nil
	}
	return domain.WaveSample{
		Time:               h.Time[i],
		SigHeightM:         at(h.WaveHeight, i),
		SigDirDegFrom:      at(h.WaveDirection, i),
		WindWaveHeightM:    at(h.WindWaveHeight, i),
		WindWaveDirDegFrom: at(h.WindWaveDirection, i),
		SwellHeightM:       at(h.SwellWaveHeight, i),
		SwellDirDegFrom:    at(h.SwellWaveDirection, i),
	}, nil
}

// FetchCurrent retrieves surface current speed and direction from the ocean
// API. Not every region serves current_speed/current_direction; when those
// variables are absent the call is retried asking for the u/v velocity
// components and speed/bearing are derived from them.
func (c *Client) FetchCurrent(ctx context.Context, pt domain.NormalizedPoint) (domain.CurrentSample, error) {
	target := domain.TargetHour(pt.Instant)

	resp, err := c.doRequest(ctx, endpointOcean, c.oceanURL, c.dayParams(pt, oceanVars))
	if err == nil && (resp.Hourly.CurrentSpeed != nil || resp.Hourly.CurrentDirection != nil) {
		h := resp.Hourly
		if i, ok := pickIndex(h.Time, target); ok {
			return domain.CurrentSample{
				Time:     h.Time[i],
				SpeedMps: at(h.CurrentSpeed, i),
				DirDegTo: at(h.CurrentDirection, i),
			}, nil
		}
	}
	if err != nil {
		c.logger.Debug("ocean speed/direction fetch failed, retrying with u/v components",
			"lat", pt.Lat, "lon", pt.Lon, "error", err)
	}

	resp, err = c.doRequest(ctx, endpointOcean, c.oceanURL, c.dayParams(pt, oceanUVVars))
	if err != nil {
		return domain.CurrentSample{}, err
	}

	h := resp.Hourly
	i, ok := pickIndex(h.Time, target)
	if !ok {
		return domain.CurrentSample{}, nil
	}

	sample := domain.CurrentSample{Time: h.Time[i]}
	u, v := at(h.CurrentU, i), at(h.CurrentV, i)
	if u != nil && v != nil {
		speed, bearing := uvToSpeedDir(*u, *v)
		sample.SpeedMps = &speed
		sample.DirDegTo = &bearing
	}
	return sample, nil
}

// dayParams builds the shared query parameters: the UTC day containing the
// target instant, ISO 8601 hourly timestamps, and the requested variables.
func (c *Client) dayParams(pt domain.NormalizedPoint, hourlyCSV string) url.Values {
	day := domain.TargetHour(pt.Instant).Format("2006-01-02")
	params := url.Values{
		"latitude":   {fmt.Sprintf("%g", pt.Lat)},
		"longitude":  {fmt.Sprintf("%g", pt.Lon)},
		"hourly":     {hourlyCSV},
		"start_date": {day},
		"end_date":   {day},
		"timezone":   {"UTC"},
		"timeformat": {"iso8601"},
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	return params
}

func (c *Client) doRequest(ctx context.Context, endpoint, baseURL string, params url.Values) (response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		return response{}, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe(endpoint, "error", start)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return response{}, fmt.Errorf("%s API error: status %d: %s", endpoint, resp.StatusCode, body)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.observe(endpoint, "error", start)
		return response{}, fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.observe(endpoint, "success", start)
	return parsed, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.EndpointRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.EndpointDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// pickIndex returns the index of the hourly timestamp closest to target.
// Entries that fail to parse are skipped. ok is false when the series is
// empty or nothing parses.
func pickIndex(times []string, target time.Time) (int, bool) {
	best := -1
	var bestDiff time.Duration
	for i, raw := range times {
		t, err := domain.NormalizeTimestamp(raw)
		if err != nil {
			continue
		}
		diff := t.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best, best >= 0
}

// at returns the i-th element of an hourly series, or nil when the series is
// shorter than the time axis (the API pads with nulls, but a truncated series
// has been observed during provider incidents).
func at(s []*float64, i int) *float64 {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// uvToSpeedDir converts eastward/northward velocity components to a speed and
// an oceanographic "to" bearing in [0,360).
func uvToSpeedDir(u, v float64) (speed, bearing float64) {
	speed = math.Hypot(u, v)
	bearing = math.Mod(math.Atan2(u, v)*180/math.Pi+360, 360)
	return speed, bearing
}

// Open-Meteo response types. All three APIs share the hourly-series envelope;
// absent variables simply decode to nil slices.

type response struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Time []string `json:"time"`

	WindSpeed10m     []*float64 `json:"windspeed_10m"`
	WindDirection10m []*float64 `json:"winddirection_10m"`

	WaveHeight         []*float64 `json:"wave_height"`
	WaveDirection      []*float64 `json:"wave_direction"`
	WindWaveHeight     []*float64 `json:"wind_wave_height"`
	WindWaveDirection  []*float64 `json:"wind_wave_direction"`
	SwellWaveHeight    []*float64 `json:"swell_wave_height"`
	SwellWaveDirection []*float64 `json:"swell_wave_direction"`

	CurrentSpeed     []*float64 `json:"current_speed"`
	CurrentDirection []*float64 `json:"current_direction"`
	CurrentU         []*float64 `json:"current_u"`
	CurrentV         []*float64 `json:"current_v"`
}
