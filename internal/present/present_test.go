package present_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/geo"
	"github.com/neexbeast/dry-chargers/internal/present"
)

var origin = geo.Coordinate{Lat: 42.83, Lon: -71.56}

func record(id string, lat, lon float64, weather string) charger.Record {
	r := charger.Record{
		ID:         id,
		Coordinate: geo.Coordinate{Lat: lat, Lon: lon},
		Connectors: charger.NewConnectorSet(charger.CCS),
		Title:      "Station " + id,
		Street:     "1 Elm St",
		Town:       "Bedford",
		State:      "NH",
	}
	if weather != "" {
		ts := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
		r.Weather = &charger.Weather{Description: weather}
		r.WeatherUpdatedAt = &ts
	}
	return r
}

func criteria() charger.Criteria {
	return charger.Criteria{
		Origin:     origin,
		MaxMiles:   50,
		Directions: geo.AllDirections,
		Connectors: charger.NewConnectorSet(charger.CCS),
	}
}

func TestFormatMiles(t *testing.T) {
	assert.Equal(t, "0 miles", present.FormatMiles(0.2))
	assert.Equal(t, "1 mile", present.FormatMiles(1.4))
	assert.Equal(t, "2 miles", present.FormatMiles(1.6))
	assert.Equal(t, "12 miles", present.FormatMiles(12))
}

func TestBuild_FiltersAndSortsByDistance(t *testing.T) {
	records := []charger.Record{
		record("far", 43.20, -71.56, "light rain"),
		record("near", 42.90, -71.50, "clear sky"),
		record("no-weather", 42.85, -71.56, ""),
		record("out-of-range", 45.00, -71.56, "snow"),
	}

	lines := present.Build(records, criteria())
	require.Len(t, lines, 2)
	assert.Equal(t, "near", lines[0].ID)
	assert.Equal(t, "far", lines[1].ID)

	near := lines[0]
	assert.Equal(t, "North", near.Direction)
	assert.Equal(t, "6 miles", near.Distance)
	assert.Equal(t, "clear sky", near.Weather)
	assert.Equal(t, []string{"CCS"}, near.Connectors)
	assert.GreaterOrEqual(t, near.Bearing, 0)
	assert.Less(t, near.Bearing, 360)
	assert.Contains(t, near.ChargerURL, "plugshare.com")
	assert.Contains(t, near.ChargerURL, "latitude=42.9")
	assert.Contains(t, near.WeatherURL, "lon=-71.5")
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, present.Build(nil, criteria()))
}

func TestLine_Sentence(t *testing.T) {
	lines := present.Build([]charger.Record{record("near", 42.90, -71.50, "clear sky")}, criteria())
	require.Len(t, lines, 1)

	s := lines[0].Sentence()
	assert.Contains(t, s, "Charger Station near at 1 Elm St in Bedford, NH is 6 miles North (")
	assert.Contains(t, s, "The weather is clear sky.")
}

func TestRender_LinesAndMessage(t *testing.T) {
	lines := present.Build([]charger.Record{record("near", 42.90, -71.50, "clear <sky>")}, criteria())

	var buf bytes.Buffer
	require.NoError(t, present.Render(&buf, present.Page{
		Form:  present.Form{Town: "Manchester", MaxDistance: 50, North: true, CCS: true},
		Lines: lines,
	}))
	html := buf.String()
	assert.Contains(t, html, `value="Manchester"`)
	assert.Contains(t, html, "Charger Station near")
	assert.Contains(t, html, "clear &lt;sky&gt;")
	assert.Contains(t, html, `name="north" value="on" checked`)
	assert.NotContains(t, html, `name="south" value="on" checked`)

	buf.Reset()
	require.NoError(t, present.Render(&buf, present.Page{Message: present.MsgNoResults}))
	assert.Contains(t, buf.String(), "<li>No Chargers within Search Criteria</li>")
}
