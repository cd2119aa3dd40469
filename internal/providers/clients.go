package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/geo"
	"github.com/neexbeast/dry-chargers/internal/metrics"
)

const httpTimeout = 10 * time.Second

// ErrNotFound is returned by the geocoder when a place has no match.
var ErrNotFound = errors.New("location not found")

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// doGet performs a GET request and decodes the JSON response into dst.
// The api label is used for metrics only.
func doGet(ctx context.Context, client *http.Client, api, rawURL string, dst any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(api, start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", api, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", api, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", api, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", api, err)
	}

	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ---- Open Charge Map ----

const (
	ocmDefaultURL = "https://api.openchargemap.io/v3/poi/"

	// DefaultMaxResults caps the number of POIs per directory request.
	DefaultMaxResults = 100

	// fastChargeLevel is the Open Charge Map level id for DC fast charging.
	fastChargeLevel = 3
	countryCode     = "US"
)

// DirectoryQuery is a single charger directory search.
type DirectoryQuery struct {
	Origin      geo.Coordinate
	RadiusMiles float64
	Connectors  charger.ConnectorSet
}

// DirectoryClient searches the Open Charge Map POI directory.
type DirectoryClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
}

// NewDirectoryClient constructs a DirectoryClient with the given API key.
func NewDirectoryClient(apiKey string, maxResults int) *DirectoryClient {
	return NewDirectoryClientWithURL(ocmDefaultURL, apiKey, maxResults)
}

// NewDirectoryClientWithURL constructs a DirectoryClient pointing at a custom base URL (for tests).
func NewDirectoryClientWithURL(baseURL, apiKey string, maxResults int) *DirectoryClient {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &DirectoryClient{apiKey: apiKey, baseURL: baseURL, maxResults: maxResults, client: newHTTPClient()}
}

// Search returns the fast chargers within the query radius offering any of
// the requested connectors. An empty connector set asks for every known type.
func (c *DirectoryClient) Search(ctx context.Context, q DirectoryQuery) ([]charger.POI, error) {
	connectors := q.Connectors
	if connectors.Empty() {
		connectors = charger.AllConnectorSet()
	}

	params := url.Values{}
	params.Set("output", "json")
	params.Set("countrycode", countryCode)
	params.Set("maxresults", strconv.Itoa(c.maxResults))
	params.Set("key", c.apiKey)
	params.Set("latitude", formatFloat(q.Origin.Lat))
	params.Set("longitude", formatFloat(q.Origin.Lon))
	params.Set("distance", formatFloat(q.RadiusMiles))
	params.Set("distanceunit", "Miles")
	params.Set("connectiontypeid", connectors.CodeList())
	params.Set("levelid", strconv.Itoa(fastChargeLevel))

	var pois []charger.POI
	if err := doGet(ctx, c.client, "directory", c.baseURL+"?"+params.Encode(), &pois); err != nil {
		return nil, fmt.Errorf("openchargemap search near %v,%v: %w", q.Origin.Lat, q.Origin.Lon, err)
	}

	return pois, nil
}

// ---- OpenWeatherMap One Call ----

const owmOneCallDefaultURL = "https://api.openweathermap.org/data/2.5/onecall"

// WeatherClient fetches current conditions from the OpenWeatherMap One Call API.
type WeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewWeatherClient constructs a WeatherClient with the given API key.
func NewWeatherClient(apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: owmOneCallDefaultURL, client: newHTTPClient()}
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL (for tests).
func NewWeatherClientWithURL(baseURL, apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type oneCallResponse struct {
	Current struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"current"`
}

// Fetch retrieves the current weather at the coordinate. The full provider
// payload is kept alongside the description.
func (c *WeatherClient) Fetch(ctx context.Context, at geo.Coordinate) (charger.Weather, error) {
	params := url.Values{}
	params.Set("lat", formatFloat(at.Lat))
	params.Set("lon", formatFloat(at.Lon))
	params.Set("appid", c.apiKey)

	var raw json.RawMessage
	if err := doGet(ctx, c.client, "weather", c.baseURL+"?"+params.Encode(), &raw); err != nil {
		return charger.Weather{}, fmt.Errorf("openweathermap fetch for %v,%v: %w", at.Lat, at.Lon, err)
	}

	var parsed oneCallResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return charger.Weather{}, fmt.Errorf("openweathermap payload for %v,%v: %w", at.Lat, at.Lon, err)
	}
	if len(parsed.Current.Weather) == 0 {
		return charger.Weather{}, fmt.Errorf("openweathermap payload for %v,%v has no current conditions", at.Lat, at.Lon)
	}

	return charger.Weather{
		Description: parsed.Current.Weather[0].Description,
		Payload:     raw,
	}, nil
}

// ---- OpenWeatherMap direct geocoding ----

const owmGeoDefaultURL = "https://api.openweathermap.org/geo/1.0/direct"

// GeocodingClient turns a place name into a coordinate.
type GeocodingClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGeocodingClient constructs a GeocodingClient with the given API key.
func NewGeocodingClient(apiKey string) *GeocodingClient {
	return &GeocodingClient{apiKey: apiKey, baseURL: owmGeoDefaultURL, client: newHTTPClient()}
}

// NewGeocodingClientWithURL constructs a GeocodingClient pointing at a custom base URL (for tests).
func NewGeocodingClientWithURL(baseURL, apiKey string) *GeocodingClient {
	return &GeocodingClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type geoCandidate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Lookup returns the best match for place, or ErrNotFound when there is none.
func (c *GeocodingClient) Lookup(ctx context.Context, place string) (geo.Coordinate, error) {
	params := url.Values{}
	params.Set("q", place)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var raw []geoCandidate
	if err := doGet(ctx, c.client, "geocoding", c.baseURL+"?"+params.Encode(), &raw); err != nil {
		return geo.Coordinate{}, fmt.Errorf("geocoding %q: %w", place, err)
	}

	if len(raw) == 0 {
		return geo.Coordinate{}, fmt.Errorf("geocoding %q: %w", place, ErrNotFound)
	}

	return geo.Coordinate{Lat: raw[0].Lat, Lon: raw[0].Lon}, nil
}
