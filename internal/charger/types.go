package charger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/neexbeast/dry-chargers/internal/geo"
)

// POI is the subset of an Open Charge Map point of interest that we read.
type POI struct {
	ID          int          `json:"ID"`
	UUID        string       `json:"UUID"`
	AddressInfo AddressInfo  `json:"AddressInfo"`
	Connections []Connection `json:"Connections"`
}

// AddressInfo holds the display address and coordinate of a POI.
type AddressInfo struct {
	Title           string  `json:"Title"`
	AddressLine1    string  `json:"AddressLine1"`
	Town            string  `json:"Town"`
	StateOrProvince string  `json:"StateOrProvince"`
	Latitude        float64 `json:"Latitude"`
	Longitude       float64 `json:"Longitude"`
}

// Connection is a single connector descriptor on a POI.
type Connection struct {
	ConnectionTypeID int `json:"ConnectionTypeID"`
}

// Key returns the stable cache identity of the POI: the provider UUID,
// then the numeric ID, then the coordinate rounded to four decimals.
func (p POI) Key() string {
	if p.UUID != "" {
		return p.UUID
	}
	if p.ID != 0 {
		return "ocm-" + strconv.Itoa(p.ID)
	}
	return fmt.Sprintf("%.4f,%.4f", p.AddressInfo.Latitude, p.AddressInfo.Longitude)
}

// Weather is a cached weather snapshot for a charger location.
type Weather struct {
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Record is a cached charger location, optionally annotated with weather.
// Weather and WeatherUpdatedAt are either both set or both nil.
type Record struct {
	ID               string         `json:"id"`
	Coordinate       geo.Coordinate `json:"coordinate"`
	Connectors       ConnectorSet   `json:"connectors"`
	Title            string         `json:"title"`
	Street           string         `json:"street"`
	Town             string         `json:"town"`
	State            string         `json:"state"`
	Weather          *Weather       `json:"weather,omitempty"`
	WeatherUpdatedAt *time.Time     `json:"weather_updated_at,omitempty"`
}

// recordFromPOI builds a Record without weather from a POI.
func recordFromPOI(p POI) Record {
	codes := make([]int, 0, len(p.Connections))
	for _, c := range p.Connections {
		codes = append(codes, c.ConnectionTypeID)
	}
	return Record{
		ID:         p.Key(),
		Coordinate: geo.Coordinate{Lat: p.AddressInfo.Latitude, Lon: p.AddressInfo.Longitude},
		Connectors: ConnectorsFromCodes(codes),
		Title:      p.AddressInfo.Title,
		Street:     p.AddressInfo.AddressLine1,
		Town:       p.AddressInfo.Town,
		State:      p.AddressInfo.StateOrProvince,
	}
}

// NeedsWeather reports whether the record has no weather or weather older than maxAge.
func (r Record) NeedsWeather(now time.Time, maxAge time.Duration) bool {
	if r.Weather == nil || r.WeatherUpdatedAt == nil {
		return true
	}
	return now.Sub(*r.WeatherUpdatedAt) > maxAge
}
