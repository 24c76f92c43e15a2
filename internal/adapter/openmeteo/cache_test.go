package openmeteo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewatch/marine-enrich/internal/domain"
)

type countingFetcher struct {
	windCalls    int
	waveCalls    int
	currentCalls int
	windSample   domain.WindSample
	windErr      error
}

func (f *countingFetcher) FetchWind(_ context.Context, _ domain.NormalizedPoint) (domain.WindSample, error) {
	f.windCalls++
	return f.windSample, f.windErr
}

func (f *countingFetcher) FetchWaves(_ context.Context, _ domain.NormalizedPoint) (domain.WaveSample, error) {
	f.waveCalls++
	return domain.WaveSample{SigHeightM: ptr(1.5)}, nil
}

func (f *countingFetcher) FetchCurrent(_ context.Context, _ domain.NormalizedPoint) (domain.CurrentSample, error) {
	f.currentCalls++
	return domain.CurrentSample{SpeedMps: ptr(0.4)}, nil
}

func pointAt(lat, lon float64, hour int) domain.NormalizedPoint {
	return domain.NormalizedPoint{
		Instant: time.Date(2024, time.April, 26, hour, 0, 0, 0, time.UTC),
		Lat:     lat,
		Lon:     lon,
	}
}

func TestCachedFetcher_HitSkipsInner(t *testing.T) {
	inner := &countingFetcher{windSample: domain.WindSample{SpeedKt: ptr(12.0)}}
	c := NewCachedFetcher(inner, 10, testMetrics())
	pt := pointAt(59.95, 24.5, 15)

	first, err := c.FetchWind(context.Background(), pt)
	require.NoError(t, err)
	second, err := c.FetchWind(context.Background(), pt)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.windCalls)
	assert.Equal(t, first, second)
}

func TestCachedFetcher_SameHourSharesEntry(t *testing.T) {
	inner := &countingFetcher{windSample: domain.WindSample{SpeedKt: ptr(12.0)}}
	c := NewCachedFetcher(inner, 10, testMetrics())

	// 15:10 and 15:50 both target hour 15:00.
	a := domain.NormalizedPoint{Instant: time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC), Lat: 59.95, Lon: 24.5}
	b := domain.NormalizedPoint{Instant: time.Date(2024, time.April, 26, 15, 50, 0, 0, time.UTC), Lat: 59.95, Lon: 24.5}

	_, err := c.FetchWind(context.Background(), a)
	require.NoError(t, err)
	_, err = c.FetchWind(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.windCalls)
}

func TestCachedFetcher_DistinctPoints(t *testing.T) {
	inner := &countingFetcher{windSample: domain.WindSample{SpeedKt: ptr(12.0)}}
	c := NewCachedFetcher(inner, 10, testMetrics())

	_, _ = c.FetchWind(context.Background(), pointAt(59.95, 24.5, 15))
	_, _ = c.FetchWind(context.Background(), pointAt(59.95, 24.5, 16))
	_, _ = c.FetchWind(context.Background(), pointAt(60.05, 24.5, 15))

	assert.Equal(t, 3, inner.windCalls)
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	inner := &countingFetcher{windErr: errors.New("boom")}
	c := NewCachedFetcher(inner, 10, testMetrics())
	pt := pointAt(59.95, 24.5, 15)

	_, err := c.FetchWind(context.Background(), pt)
	require.Error(t, err)
	_, err = c.FetchWind(context.Background(), pt)
	require.Error(t, err)

	assert.Equal(t, 2, inner.windCalls)
}

func TestCachedFetcher_EmptySamplesNotCached(t *testing.T) {
	inner := &countingFetcher{windSample: domain.WindSample{}}
	c := NewCachedFetcher(inner, 10, testMetrics())
	pt := pointAt(59.95, 24.5, 15)

	_, _ = c.FetchWind(context.Background(), pt)
	_, _ = c.FetchWind(context.Background(), pt)

	assert.Equal(t, 2, inner.windCalls, "all-null samples are refetched")
}

func TestCachedFetcher_CachesPerEndpoint(t *testing.T) {
	inner := &countingFetcher{windSample: domain.WindSample{SpeedKt: ptr(12.0)}}
	c := NewCachedFetcher(inner, 10, testMetrics())
	pt := pointAt(59.95, 24.5, 15)

	for range 2 {
		_, _ = c.FetchWind(context.Background(), pt)
		_, _ = c.FetchWaves(context.Background(), pt)
		_, _ = c.FetchCurrent(context.Background(), pt)
	}

	assert.Equal(t, 1, inner.windCalls)
	assert.Equal(t, 1, inner.waveCalls)
	assert.Equal(t, 1, inner.currentCalls)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newLRUCache[int](2)
	cache.put("a", 1)
	cache.put("b", 2)

	// Touch "a" so "b" becomes least recently used.
	_, ok := cache.get("a")
	require.True(t, ok)

	cache.put("c", 3)

	_, ok = cache.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = cache.get("a")
	assert.True(t, ok)
	_, ok = cache.get("c")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExistingKey(t *testing.T) {
	cache := newLRUCache[int](2)
	cache.put("a", 1)
	cache.put("a", 2)

	v, ok := cache.get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Len(t, cache.entries, 1)
}
