package present

import (
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/geo"
)

// User-facing messages.
const (
	MsgNoResults    = "No Chargers within Search Criteria"
	MsgNoSuchPlace  = "No such location"
	MsgSearchFailed = "Search failed"
)

const (
	plugShareBaseURL = "https://www.plugshare.com/"
	forecastBaseURL  = "https://forecast.weather.gov/MapClick.php"
)

// Line is one charger in a result list.
type Line struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Street        string         `json:"street"`
	Town          string         `json:"town"`
	State         string         `json:"state"`
	Coordinate    geo.Coordinate `json:"coordinate"`
	Connectors    []string       `json:"connectors"`
	DistanceMiles float64        `json:"distance_miles"`
	Distance      string         `json:"distance"`
	Direction     string         `json:"direction"`
	Bearing       int            `json:"bearing"`
	Weather       string         `json:"weather"`
	ChargerURL    string         `json:"charger_url"`
	WeatherURL    string         `json:"weather_url"`
}

// Build returns the result lines for every record that passes the filter
// and carries weather, nearest first.
func Build(records []charger.Record, c charger.Criteria) []Line {
	lines := make([]Line, 0, len(records))
	for _, r := range records {
		if r.Weather == nil || !charger.Suitable(r, c) {
			continue
		}
		lines = append(lines, newLine(r, c.Origin))
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].DistanceMiles != lines[j].DistanceMiles {
			return lines[i].DistanceMiles < lines[j].DistanceMiles
		}
		return lines[i].ID < lines[j].ID
	})
	return lines
}

func newLine(r charger.Record, origin geo.Coordinate) Line {
	d := geo.DistanceMiles(origin, r.Coordinate)
	brng := geo.BearingDegrees(origin, r.Coordinate)

	connectors := make([]string, 0, 3)
	for _, c := range r.Connectors.List() {
		connectors = append(connectors, c.String())
	}

	return Line{
		ID:            r.ID,
		Title:         r.Title,
		Street:        r.Street,
		Town:          r.Town,
		State:         r.State,
		Coordinate:    r.Coordinate,
		Connectors:    connectors,
		DistanceMiles: d,
		Distance:      FormatMiles(d),
		Direction:     geo.CompassPoint(brng).String(),
		Bearing:       int(math.Round(brng)) % 360,
		Weather:       r.Weather.Description,
		ChargerURL:    chargerURL(r.Coordinate),
		WeatherURL:    weatherURL(r.Coordinate),
	}
}

// FormatMiles rounds d to whole miles: "1 mile", otherwise "N miles".
func FormatMiles(d float64) string {
	n := int(math.Round(d))
	if n == 1 {
		return "1 mile"
	}
	return fmt.Sprintf("%d miles", n)
}

// Sentence renders the line the way the results page reads it.
func (l Line) Sentence() string {
	return fmt.Sprintf("Charger %s at %s in %s, %s is %s %s (%d°). The weather is %s.",
		l.Title, l.Street, l.Town, l.State, l.Distance, l.Direction, l.Bearing, l.Weather)
}

func chargerURL(at geo.Coordinate) string {
	q := url.Values{}
	q.Set("latitude", fmt.Sprint(at.Lat))
	q.Set("longitude", fmt.Sprint(at.Lon))
	q.Set("spanLat", "0.003")
	q.Set("spanLng", "0.005")
	return plugShareBaseURL + "?" + q.Encode()
}

func weatherURL(at geo.Coordinate) string {
	q := url.Values{}
	q.Set("lat", fmt.Sprint(at.Lat))
	q.Set("lon", fmt.Sprint(at.Lon))
	return forecastBaseURL + "?" + q.Encode()
}
