package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/geo"
	"github.com/neexbeast/dry-chargers/internal/metrics"
	"github.com/neexbeast/dry-chargers/internal/providers"
)

var (
	// ErrDirectory wraps a failed charger directory request.
	ErrDirectory = errors.New("charger directory request failed")
	// ErrWeather wraps a failed weather request.
	ErrWeather = errors.New("weather request failed")
)

// directorySearcher is the interface satisfied by providers.DirectoryClient.
type directorySearcher interface {
	Search(ctx context.Context, q providers.DirectoryQuery) ([]charger.POI, error)
}

// weatherFetcher is the interface satisfied by providers.WeatherClient.
type weatherFetcher interface {
	Fetch(ctx context.Context, at geo.Coordinate) (charger.Weather, error)
}

// State is a pipeline run's position in its state machine.
type State int

const (
	FetchingPOIs State = iota
	FillingWeather
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case FetchingPOIs:
		return "fetching_pois"
	case FillingWeather:
		return "filling_weather"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request is the input to one pipeline run.
type Request struct {
	Criteria charger.Criteria
	// RadiusMiles is the directory search radius. Zero uses Criteria.MaxMiles.
	RadiusMiles float64
}

// Report summarises a pipeline run.
type Report struct {
	State          State
	POIsFetched    int
	NewRecords     int
	WeatherFetched int
}

// CompletionFunc is called once every suitable record has fresh weather.
type CompletionFunc func(ctx context.Context, criteria charger.Criteria) error

// Pipeline fills the charger cache for a search: one directory request,
// then one weather request at a time for every suitable record whose
// weather is missing or stale.
type Pipeline struct {
	// mu makes the pipeline the single owner of the cache while a run is in flight.
	mu        sync.Mutex
	directory directorySearcher
	weather   weatherFetcher
	cache     *charger.Cache
	store     charger.BlobStore
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for weather timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithStore persists the cache to store after every completed run.
func WithStore(store charger.BlobStore) Option {
	return func(p *Pipeline) { p.store = store }
}

// New constructs a Pipeline over the given cache.
func New(directory directorySearcher, weather weatherFetcher, cache *charger.Cache, log *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		directory: directory,
		weather:   weather,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline for req and calls done with the normalized
// criteria when it reaches Complete. A failed request aborts the run in
// state Failed without calling done; the cache keeps whatever was merged
// and fetched before the failure.
func (p *Pipeline) Run(ctx context.Context, req Request, done CompletionFunc) (Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	crit := req.Criteria.Normalize()
	radius := req.RadiusMiles
	if radius <= 0 {
		radius = crit.MaxMiles
	}

	report := Report{State: FetchingPOIs}
	log := p.log.With("lat", crit.Origin.Lat, "lon", crit.Origin.Lon)
	log.Debug("pipeline state", "state", report.State.String(), "radius_miles", radius, "connectors", crit.Connectors.String())

	pois, err := p.directory.Search(ctx, providers.DirectoryQuery{
		Origin:      crit.Origin,
		RadiusMiles: radius,
		Connectors:  crit.Connectors,
	})
	if err != nil {
		return p.fail(log, report, fmt.Errorf("%w: %w", ErrDirectory, err))
	}

	report.POIsFetched = len(pois)
	report.NewRecords = p.cache.Merge(pois)
	report.State = FillingWeather
	log.Debug("pipeline state", "state", report.State.String(), "pois", report.POIsFetched, "new", report.NewRecords)

	attempted := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return p.fail(log, report, fmt.Errorf("%w: %w", ErrWeather, err))
		}

		id, ok := p.next(crit, attempted)
		if !ok {
			break
		}
		attempted[id] = true

		rec, ok := p.cache.Get(id)
		if !ok {
			continue
		}

		w, err := p.weather.Fetch(ctx, rec.Coordinate)
		if err != nil {
			return p.fail(log, report, fmt.Errorf("%w: charger %s: %w", ErrWeather, id, err))
		}

		if !p.cache.RecordWeather(id, w, p.now()) {
			log.Debug("weather for charger no longer cached", "id", id)
			continue
		}
		report.WeatherFetched++
	}

	report.State = Complete
	metrics.ObservePipelineRun(report.State.String())
	metrics.SetCachedChargers(p.cache.Len())
	log.Info("pipeline complete",
		"pois", report.POIsFetched,
		"new", report.NewRecords,
		"weather_fetched", report.WeatherFetched,
		"cached", p.cache.Len())

	if p.store != nil {
		if err := p.cache.Save(ctx, p.store); err != nil {
			log.Warn("persisting charger cache failed", "err", err)
		}
	}

	if done == nil {
		return report, nil
	}
	return report, done(ctx, crit)
}

// next returns the first id that still needs weather and has not been tried
// during this run. The list is recomputed every call since each weather
// update can change it.
func (p *Pipeline) next(crit charger.Criteria, attempted map[string]bool) (string, bool) {
	for _, id := range p.cache.NeedingWeather(crit, p.now()) {
		if !attempted[id] {
			return id, true
		}
	}
	return "", false
}

func (p *Pipeline) fail(log *slog.Logger, report Report, err error) (Report, error) {
	report.State = Failed
	metrics.ObservePipelineRun(report.State.String())
	log.Warn("pipeline failed", "err", err, "weather_fetched", report.WeatherFetched)
	return report, err
}
