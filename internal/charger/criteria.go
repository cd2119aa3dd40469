package charger

import (
	"time"

	"github.com/neexbeast/dry-chargers/internal/geo"
)

// DefaultMaxWeatherAge is how long a weather snapshot stays fresh.
const DefaultMaxWeatherAge = 2 * time.Hour

// Criteria describes one user search.
type Criteria struct {
	Origin     geo.Coordinate  `json:"origin"`
	MinMiles   float64         `json:"min_distance"`
	MaxMiles   float64         `json:"max_distance"`
	Directions []geo.Direction `json:"directions"`
	Connectors ConnectorSet    `json:"connectors"`
	// MaxWeatherAge is the staleness threshold for cached weather.
	MaxWeatherAge time.Duration `json:"-"`
}

// Normalize fills defaults: an empty connector set means every connector
// type, and a zero staleness threshold becomes DefaultMaxWeatherAge.
func (c Criteria) Normalize() Criteria {
	if c.Connectors.Empty() {
		c.Connectors = AllConnectorSet()
	}
	if c.MaxWeatherAge <= 0 {
		c.MaxWeatherAge = DefaultMaxWeatherAge
	}
	return c
}

// Allows reports whether d is one of the requested directions.
func (c Criteria) Allows(d geo.Direction) bool {
	for _, want := range c.Directions {
		if want == d {
			return true
		}
	}
	return false
}
