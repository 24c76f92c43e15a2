package openmeteo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tidewatch/marine-enrich/internal/domain"
	"github.com/tidewatch/marine-enrich/internal/observability"
)

// CachedFetcher wraps a WeatherFetcher with per-endpoint in-memory LRU
// caches keyed by point and hour. Bulk uploads frequently repeat the same
// point-hour (vessel loitering, duplicated rows), and the hourly series never
// changes within a run, so caching is safe.
type CachedFetcher struct {
	inner   domain.WeatherFetcher
	wind    *lruCache[domain.WindSample]
	waves   *lruCache[domain.WaveSample]
	current *lruCache[domain.CurrentSample]
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher. maxEntries
// applies to each endpoint cache independently.
func NewCachedFetcher(inner domain.WeatherFetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		wind:    newLRUCache[domain.WindSample](maxEntries),
		waves:   newLRUCache[domain.WaveSample](maxEntries),
		current: newLRUCache[domain.CurrentSample](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedFetcher) FetchWind(ctx context.Context, pt domain.NormalizedPoint) (domain.WindSample, error) {
	key := pointKey(pt)
	if sample, ok := c.wind.get(key); ok {
		c.lookup(endpointForecast, "hit")
		return sample, nil
	}
	c.lookup(endpointForecast, "miss")

	sample, err := c.inner.FetchWind(ctx, pt)
	if err != nil {
		return sample, err
	}
	// Only cache samples with data so transient gaps can be refetched.
	if sample.SpeedKt != nil || sample.DirDegFrom != nil {
		c.wind.put(key, sample)
	}
	return sample, nil
}

func (c *CachedFetcher) FetchWaves(ctx context.Context, pt domain.NormalizedPoint) (domain.WaveSample, error) {
	key := pointKey(pt)
	if sample, ok := c.waves.get(key); ok {
		c.lookup(endpointMarine, "hit")
		return sample, nil
	}
	c.lookup(endpointMarine, "miss")

	sample, err := c.inner.FetchWaves(ctx, pt)
	if err != nil {
		return sample, err
	}
	if sample.SigHeightM != nil || sample.SwellHeightM != nil || sample.WindWaveHeightM != nil {
		c.waves.put(key, sample)
	}
	return sample, nil
}

func (c *CachedFetcher) FetchCurrent(ctx context.Context, pt domain.NormalizedPoint) (domain.CurrentSample, error) {
	key := pointKey(pt)
	if sample, ok := c.current.get(key); ok {
		c.lookup(endpointOcean, "hit")
		return sample, nil
	}
	c.lookup(endpointOcean, "miss")

	sample, err := c.inner.FetchCurrent(ctx, pt)
	if err != nil {
		return sample, err
	}
	if sample.SpeedMps != nil || sample.DirDegTo != nil {
		c.current.put(key, sample)
	}
	return sample, nil
}

func (c *CachedFetcher) lookup(endpoint, result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CacheLookups.WithLabelValues(endpoint, result).Inc()
}

// pointKey collapses a point to 4 decimal places (~11 m) and its target hour.
// Points closer together than that see identical hourly grid cells anyway.
func pointKey(pt domain.NormalizedPoint) string {
	return fmt.Sprintf("%.4f,%.4f|%s", pt.Lat, pt.Lon,
		domain.TargetHour(pt.Instant).Format(time.RFC3339))
}

// lruCache is a simple thread-safe LRU cache over endpoint samples.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
