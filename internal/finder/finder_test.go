package finder_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/finder"
	"github.com/neexbeast/dry-chargers/internal/geo"
	"github.com/neexbeast/dry-chargers/internal/pipeline"
	"github.com/neexbeast/dry-chargers/internal/providers"
)

var manchester = geo.Coordinate{Lat: 42.99, Lon: -71.46}

type fakeGeocoder struct {
	calls int32
	err   error
}

func (f *fakeGeocoder) Lookup(_ context.Context, place string) (geo.Coordinate, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return geo.Coordinate{}, f.err
	}
	return manchester, nil
}

type fakeDirectory struct {
	pois  []charger.POI
	calls int32
}

func (f *fakeDirectory) Search(_ context.Context, _ providers.DirectoryQuery) ([]charger.POI, error) {
	atomic.AddInt32(&f.calls, 1)
	time.Sleep(10 * time.Millisecond)
	return f.pois, nil
}

type fakeWeather struct{ err error }

func (f *fakeWeather) Fetch(_ context.Context, _ geo.Coordinate) (charger.Weather, error) {
	if f.err != nil {
		return charger.Weather{}, f.err
	}
	return charger.Weather{Description: "overcast clouds"}, nil
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func poi(uuid string, lat, lon float64, codes ...int) charger.POI {
	conns := make([]charger.Connection, 0, len(codes))
	for _, c := range codes {
		conns = append(conns, charger.Connection{ConnectionTypeID: c})
	}
	return charger.POI{
		UUID:        uuid,
		AddressInfo: charger.AddressInfo{Title: uuid, Town: "Hooksett", StateOrProvince: "NH", Latitude: lat, Longitude: lon},
		Connections: conns,
	}
}

func newFinder(g *fakeGeocoder, d *fakeDirectory, w *fakeWeather) (*finder.Finder, *charger.Cache) {
	cache := charger.NewCache()
	p := pipeline.New(d, w, cache, discardLog())
	return finder.New(g, p, cache, discardLog()), cache
}

func northCCS() charger.Criteria {
	return charger.Criteria{
		MaxMiles:   50,
		Directions: []geo.Direction{geo.North},
		Connectors: charger.NewConnectorSet(charger.CCS),
	}
}

func TestSearch_ReturnsSuitableChargers(t *testing.T) {
	dir := &fakeDirectory{pois: []charger.POI{
		poi("north-ccs", 43.10, -71.46, 32),
		poi("north-tesla", 43.05, -71.46, 30),
		poi("south-ccs", 42.80, -71.46, 33),
	}}
	f, cache := newFinder(&fakeGeocoder{}, dir, &fakeWeather{})

	res, err := f.Search(context.Background(), finder.Query{Town: "Manchester", Criteria: northCCS()})
	require.NoError(t, err)

	assert.Equal(t, manchester, res.Origin)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "north-ccs", res.Lines[0].ID)
	assert.Equal(t, "North", res.Lines[0].Direction)
	assert.Equal(t, "overcast clouds", res.Lines[0].Weather)
	assert.Empty(t, res.Message)
	assert.Equal(t, 3, cache.Len())
}

func TestSearch_NoResultsMessage(t *testing.T) {
	dir := &fakeDirectory{pois: []charger.POI{poi("south-ccs", 42.80, -71.46, 32)}}
	f, _ := newFinder(&fakeGeocoder{}, dir, &fakeWeather{})

	res, err := f.Search(context.Background(), finder.Query{Town: "Manchester", Criteria: northCCS()})
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Equal(t, "No Chargers within Search Criteria", res.Message)
}

func TestSearch_UnknownTown(t *testing.T) {
	g := &fakeGeocoder{err: fmt.Errorf("geocoding %q: %w", "Nowhere", providers.ErrNotFound)}
	dir := &fakeDirectory{}
	f, _ := newFinder(g, dir, &fakeWeather{})

	_, err := f.Search(context.Background(), finder.Query{Town: "Nowhere", Criteria: northCCS()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, finder.ErrNotFound))
	assert.Equal(t, int32(0), atomic.LoadInt32(&dir.calls), "directory is not queried for unknown towns")
}

func TestSearch_BlankTown(t *testing.T) {
	g := &fakeGeocoder{}
	f, _ := newFinder(g, &fakeDirectory{}, &fakeWeather{})

	_, err := f.Search(context.Background(), finder.Query{Town: "   "})
	assert.True(t, errors.Is(err, finder.ErrNotFound))
	assert.Equal(t, int32(0), atomic.LoadInt32(&g.calls))
}

func TestSearch_GeocoderFailure(t *testing.T) {
	f, _ := newFinder(&fakeGeocoder{err: errors.New("connection refused")}, &fakeDirectory{}, &fakeWeather{})

	_, err := f.Search(context.Background(), finder.Query{Town: "Manchester", Criteria: northCCS()})
	require.Error(t, err)
	assert.False(t, errors.Is(err, finder.ErrNotFound))
}

func TestSearch_PipelineFailure(t *testing.T) {
	dir := &fakeDirectory{pois: []charger.POI{poi("north-ccs", 43.10, -71.46, 32)}}
	f, _ := newFinder(&fakeGeocoder{}, dir, &fakeWeather{err: errors.New("429")})

	_, err := f.Search(context.Background(), finder.Query{Town: "Manchester", Criteria: northCCS()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrWeather))
}

func TestSearch_IdenticalConcurrentSearchesShareOneRun(t *testing.T) {
	g := &fakeGeocoder{}
	dir := &fakeDirectory{pois: []charger.POI{poi("north-ccs", 43.10, -71.46, 32)}}
	f, _ := newFinder(g, dir, &fakeWeather{})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.Search(context.Background(), finder.Query{Town: "Manchester", Criteria: northCCS()})
			assert.NoError(t, err)
			if res != nil {
				assert.Len(t, res.Lines, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&g.calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&dir.calls), int32(1))
}
