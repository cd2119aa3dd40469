package charger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	// StorageKey is the fixed key the cache is persisted under.
	StorageKey = "find_dry_chargers"

	// FormatVersion tags the persisted layout. Bump it when Record changes shape;
	// blobs with any other version are discarded on load.
	FormatVersion = 3
)

// BlobStore is a durable key/value store for the serialized cache.
// Get returns nil, nil when the key is absent.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// snapshot is the persisted form of the cache.
type snapshot struct {
	Version   *int              `json:"version"`
	Locations map[string]Record `json:"locations"`
}

// Cache maps charger ids to records. It only grows: records are inserted on
// first sighting and overwritten by fresher POI or weather data, never evicted.
type Cache struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]Record)}
}

// Merge folds a batch of POIs into the cache. New ids get a record without
// weather; known ids have their charger fields replaced and keep their weather.
// It returns the number of new records.
func (c *Cache) Merge(pois []POI) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, p := range pois {
		fresh := recordFromPOI(p)
		if existing, ok := c.records[fresh.ID]; ok {
			fresh.Weather = existing.Weather
			fresh.WeatherUpdatedAt = existing.WeatherUpdatedAt
		} else {
			added++
		}
		c.records[fresh.ID] = fresh
	}
	return added
}

// NeedingWeather returns, sorted by id, every record that passes Suitable for
// the criteria and has missing or stale weather.
func (c *Cache) NeedingWeather(criteria Criteria, now time.Time) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for id, r := range c.records {
		if !r.NeedsWeather(now, criteria.MaxWeatherAge) {
			continue
		}
		if !Suitable(r, criteria) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RecordWeather stores a weather snapshot for id. It returns false and
// changes nothing when id is not in the cache.
func (c *Cache) RecordWeather(id string, w Weather, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.records[id]
	if !ok {
		return false
	}
	ts := now
	r.Weather = &w
	r.WeatherUpdatedAt = &ts
	c.records[id] = r
	return true
}

// Get returns the record for id.
func (c *Cache) Get(id string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[id]
	return r, ok
}

// Records returns a copy of every record, sorted by id.
func (c *Cache) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Reset drops every record.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]Record)
}

// Save writes the whole cache to store under StorageKey.
func (c *Cache) Save(ctx context.Context, store BlobStore) error {
	c.mu.RLock()
	version := FormatVersion
	b, err := json.Marshal(snapshot{Version: &version, Locations: c.records})
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling charger cache: %w", err)
	}

	if err := store.Put(ctx, StorageKey, b); err != nil {
		return fmt.Errorf("saving charger cache: %w", err)
	}
	return nil
}

// Load replaces the cache contents with the blob stored under StorageKey.
// A missing blob, a missing or different version, or an undecodable payload
// leaves the cache empty. Only store failures are returned as errors.
func (c *Cache) Load(ctx context.Context, store BlobStore) error {
	b, err := store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("loading charger cache: %w", err)
	}

	records := make(map[string]Record)
	defer func() {
		c.mu.Lock()
		c.records = records
		c.mu.Unlock()
	}()

	if b == nil {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		slog.Warn("discarding undecodable charger cache", "err", err)
		return nil
	}
	if snap.Version == nil || *snap.Version != FormatVersion {
		slog.Info("discarding charger cache with stale format version", "want", FormatVersion)
		return nil
	}

	for id, r := range snap.Locations {
		// A record must carry weather and its timestamp together.
		if (r.Weather == nil) != (r.WeatherUpdatedAt == nil) {
			r.Weather = nil
			r.WeatherUpdatedAt = nil
		}
		r.ID = id
		records[id] = r
	}
	return nil
}
