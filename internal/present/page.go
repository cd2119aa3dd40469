package present

import (
	"fmt"
	"html/template"
	"io"
)

// Form holds the search form state echoed back into the page.
type Form struct {
	Town        string
	MinDistance float64
	MaxDistance float64
	North       bool
	South       bool
	East        bool
	West        bool
	Tesla       bool
	CCS         bool
	CHAdeMO     bool
}

// Page is the data behind the HTML results page.
type Page struct {
	Form    Form
	Message string
	Lines   []Line
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Find Dry Chargers</title>
</head>
<body>
<h1>Find Dry Chargers</h1>
<form id="user-form" method="get" action="/">
  <input id="searchInput" name="town" type="text" placeholder="Town" value="{{.Form.Town}}">
  <fieldset>
    <legend>Direction</legend>
    <label><input type="checkbox" name="north" value="on"{{if .Form.North}} checked{{end}}> North</label>
    <label><input type="checkbox" name="south" value="on"{{if .Form.South}} checked{{end}}> South</label>
    <label><input type="checkbox" name="east" value="on"{{if .Form.East}} checked{{end}}> East</label>
    <label><input type="checkbox" name="west" value="on"{{if .Form.West}} checked{{end}}> West</label>
  </fieldset>
  <fieldset>
    <legend>Connector</legend>
    <label><input type="checkbox" name="tesla" value="on"{{if .Form.Tesla}} checked{{end}}> Tesla</label>
    <label><input type="checkbox" name="ccs" value="on"{{if .Form.CCS}} checked{{end}}> CCS</label>
    <label><input type="checkbox" name="chademo" value="on"{{if .Form.CHAdeMO}} checked{{end}}> CHAdeMO</label>
  </fieldset>
  <label>Minimum distance <input type="range" name="min_distance" min="0" max="200" value="{{.Form.MinDistance}}"> miles</label>
  <label>Maximum distance <input type="range" name="max_distance" min="0" max="200" value="{{.Form.MaxDistance}}"> miles</label>
  <button type="submit">Search</button>
</form>
<div id="resultsList">
<ul>
{{- if .Message}}
  <li>{{.Message}}</li>
{{- end}}
{{- range .Lines}}
  <li><span>Charger {{.Title}} at {{.Street}} in {{.Town}}, {{.State}} is {{.Distance}} {{.Direction}} ({{.Bearing}}&deg;).
  The weather is {{.Weather}}.
  Click <a href="{{.ChargerURL}}" target="_blank">here</a> for more information about the charger.
  Click <a href="{{.WeatherURL}}" target="_blank">here</a> for more information about the weather at that location.</span></li>
{{- end}}
</ul>
</div>
</body>
</html>
`))

// Render writes the HTML page to w.
func Render(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("rendering results page: %w", err)
	}
	return nil
}
