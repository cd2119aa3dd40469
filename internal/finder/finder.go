package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/geo"
	"github.com/neexbeast/dry-chargers/internal/pipeline"
	"github.com/neexbeast/dry-chargers/internal/present"
	"github.com/neexbeast/dry-chargers/internal/providers"
)

// ErrNotFound is returned when the town cannot be geocoded.
var ErrNotFound = errors.New("no such location")

// geocoder is the interface satisfied by providers.GeocodingClient.
type geocoder interface {
	Lookup(ctx context.Context, place string) (geo.Coordinate, error)
}

// enricher is the interface satisfied by pipeline.Pipeline.
type enricher interface {
	Run(ctx context.Context, req pipeline.Request, done pipeline.CompletionFunc) (pipeline.Report, error)
}

// Query is a user search before geocoding.
type Query struct {
	Town     string
	Criteria charger.Criteria
}

// Result is the outcome of a completed search.
type Result struct {
	Origin  geo.Coordinate `json:"origin"`
	Lines   []present.Line `json:"results"`
	Message string         `json:"message,omitempty"`
}

// Finder geocodes a town, fills the charger cache around it and returns the
// chargers that match the query.
type Finder struct {
	geocoder geocoder
	pipeline enricher
	cache    *charger.Cache
	log      *slog.Logger
	group    singleflight.Group
}

// New constructs a Finder.
func New(g geocoder, p enricher, cache *charger.Cache, log *slog.Logger) *Finder {
	return &Finder{geocoder: g, pipeline: p, cache: cache, log: log}
}

// Search runs one search. Identical searches in flight at the same time
// share a single pipeline run.
func (f *Finder) Search(ctx context.Context, q Query) (*Result, error) {
	town := strings.TrimSpace(q.Town)
	if town == "" {
		return nil, fmt.Errorf("searching: %w", ErrNotFound)
	}

	v, err, shared := f.group.Do(key(town, q.Criteria), func() (any, error) {
		return f.search(ctx, town, q.Criteria)
	})
	if shared {
		f.log.Debug("search shared with concurrent caller", "town", town)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (f *Finder) search(ctx context.Context, town string, crit charger.Criteria) (*Result, error) {
	origin, err := f.geocoder.Lookup(ctx, town)
	if err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			f.log.Info("town not found", "town", town)
			return nil, fmt.Errorf("searching %q: %w", town, ErrNotFound)
		}
		return nil, fmt.Errorf("searching %q: %w", town, err)
	}
	crit.Origin = origin

	res := &Result{Origin: origin}
	_, err = f.pipeline.Run(ctx, pipeline.Request{Criteria: crit}, func(_ context.Context, c charger.Criteria) error {
		res.Lines = present.Build(f.cache.Records(), c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", town, err)
	}

	if len(res.Lines) == 0 {
		res.Message = present.MsgNoResults
	}
	f.log.Info("search complete", "town", town, "results", len(res.Lines))
	return res, nil
}

// key identifies a search for request collapsing.
func key(town string, c charger.Criteria) string {
	dirs := make([]string, 0, len(c.Directions))
	for _, d := range c.Directions {
		dirs = append(dirs, d.String())
	}
	sort.Strings(dirs)
	return fmt.Sprintf("%s|%g|%g|%s|%s|%s",
		strings.ToLower(town), c.MinMiles, c.MaxMiles, strings.Join(dirs, ","), c.Connectors, c.MaxWeatherAge)
}
