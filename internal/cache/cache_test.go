package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dry-chargers/internal/cache"
	"github.com/neexbeast/dry-chargers/internal/charger"
)

func newTestStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisStore(client), mr
}

var blob = []byte(`{"version":3,"locations":{}}`)

func TestRedisStore_PutAndGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "find_dry_chargers", blob))

	got, err := s.Get(ctx, "find_dry_chargers")
	require.NoError(t, err)
	assert.JSONEq(t, string(blob), string(got))
	assert.True(t, mr.Exists("drychargers:find_dry_chargers"))
}

func TestRedisStore_Get_Miss(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got, "a miss should return nil, nil")
}

func TestRedisStore_PutOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("one")))
	require.NoError(t, s.Put(ctx, "k", []byte("two")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestRedisStore_NoExpiryByDefault(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", blob))
	mr.FastForward(48 * time.Hour)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRedisStore_WithTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTTL(time.Hour).Put(ctx, "k", blob))
	mr.FastForward(2 * time.Hour)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, s.Put(context.Background(), "k", blob))
	require.Error(t, s.Ping(context.Background()))
}

func TestRedisStore_BacksChargerCache(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c := charger.NewCache()
	c.Merge([]charger.POI{{
		UUID:        "abc",
		AddressInfo: charger.AddressInfo{Title: "Town Hall", Latitude: 42.9, Longitude: -71.4},
		Connections: []charger.Connection{{ConnectionTypeID: 32}},
	}})
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	require.True(t, c.RecordWeather("abc", charger.Weather{Description: "mist"}, now))
	require.NoError(t, c.Save(ctx, s))

	restored := charger.NewCache()
	require.NoError(t, restored.Load(ctx, s))
	r, ok := restored.Get("abc")
	require.True(t, ok)
	require.NotNil(t, r.Weather)
	assert.Equal(t, "mist", r.Weather.Description)
}

func TestMemoryStore(t *testing.T) {
	s := cache.NewMemoryStore()
	ctx := context.Background()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	v := []byte("payload")
	require.NoError(t, s.Put(ctx, "k", v))
	v[0] = 'X'

	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got), "stored value is a copy")
	assert.NoError(t, s.Ping(ctx))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_OK(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()
}
