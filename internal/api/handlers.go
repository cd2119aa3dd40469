package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/finder"
	"github.com/neexbeast/dry-chargers/internal/geo"
	"github.com/neexbeast/dry-chargers/internal/present"
)

// SearchDefaults fill in query parameters the caller left out.
type SearchDefaults struct {
	MinDistance   float64
	MaxDistance   float64
	MaxWeatherAge time.Duration
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	finder   ChargerFinder
	defaults SearchDefaults
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(f ChargerFinder, defaults SearchDefaults, log *slog.Logger) *Handlers {
	return &Handlers{
		finder:   f,
		defaults: defaults,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SearchChargers handles GET /api/v1/chargers.
// Unknown town → 404. Upstream failure → 502.
func (h *Handlers) SearchChargers(w http.ResponseWriter, r *http.Request) {
	q, _, err := h.parseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if q.Town == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "town is required"})
		return
	}

	res, err := h.finder.Search(r.Context(), q)
	if err != nil {
		status, msg := h.searchError(q.Town, err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Page handles GET /. Without a town it renders the empty search form.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	page := present.Page{}

	q, form, err := h.parseQuery(r.URL.Query())
	page.Form = form
	switch {
	case err != nil:
		status = http.StatusBadRequest
		page.Message = err.Error()
	case q.Town != "":
		res, err := h.finder.Search(r.Context(), q)
		if err != nil {
			status, page.Message = h.searchError(q.Town, err)
			break
		}
		page.Lines = res.Lines
		page.Message = res.Message
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := present.Render(w, page); err != nil {
		h.log.Error("render page failed", "err", err)
	}
}

// searchError maps a finder error to a status code and user message.
func (h *Handlers) searchError(town string, err error) (int, string) {
	if errors.Is(err, finder.ErrNotFound) {
		return http.StatusNotFound, present.MsgNoSuchPlace
	}
	if errors.Is(err, context.Canceled) {
		h.log.Info("search cancelled by client", "town", town)
	} else {
		h.log.Error("search failed", "town", town, "err", err)
	}
	return http.StatusBadGateway, present.MsgSearchFailed
}

var (
	directionParams = []struct {
		name string
		dir  geo.Direction
	}{
		{"north", geo.North},
		{"south", geo.South},
		{"east", geo.East},
		{"west", geo.West},
	}
	connectorParams = []struct {
		name string
		conn charger.Connector
	}{
		{"tesla", charger.Tesla},
		{"ccs", charger.CCS},
		{"chademo", charger.CHAdeMO},
	}
)

// parseQuery turns search parameters into a finder query and the form
// state to echo back. No direction flags means every direction; no
// connector flags means every connector.
func (h *Handlers) parseQuery(v url.Values) (finder.Query, present.Form, error) {
	form := present.Form{
		Town:        strings.TrimSpace(v.Get("town")),
		MinDistance: h.defaults.MinDistance,
		MaxDistance: h.defaults.MaxDistance,
	}
	crit := charger.Criteria{MaxWeatherAge: h.defaults.MaxWeatherAge}

	var err error
	if form.MinDistance, err = parseMiles(v, "min_distance", form.MinDistance); err != nil {
		return finder.Query{}, form, err
	}
	if form.MaxDistance, err = parseMiles(v, "max_distance", form.MaxDistance); err != nil {
		return finder.Query{}, form, err
	}
	if form.MinDistance > form.MaxDistance {
		return finder.Query{}, form, fmt.Errorf("min_distance %g is greater than max_distance %g", form.MinDistance, form.MaxDistance)
	}
	crit.MinMiles, crit.MaxMiles = form.MinDistance, form.MaxDistance

	anyDir := false
	for _, p := range directionParams {
		if v.Has(p.name) {
			anyDir = true
		}
		on, err := parseFlag(v, p.name)
		if err != nil {
			return finder.Query{}, form, err
		}
		if on {
			crit.Directions = append(crit.Directions, p.dir)
		}
	}
	if !anyDir {
		crit.Directions = append([]geo.Direction(nil), geo.AllDirections...)
	}

	anyConn := false
	for _, p := range connectorParams {
		if v.Has(p.name) {
			anyConn = true
		}
		on, err := parseFlag(v, p.name)
		if err != nil {
			return finder.Query{}, form, err
		}
		if on {
			crit.Connectors |= charger.NewConnectorSet(p.conn)
		}
	}
	if !anyConn {
		crit.Connectors = charger.AllConnectorSet()
	}

	form.North, form.South = crit.Allows(geo.North), crit.Allows(geo.South)
	form.East, form.West = crit.Allows(geo.East), crit.Allows(geo.West)
	form.Tesla = crit.Connectors.Has(charger.Tesla)
	form.CCS = crit.Connectors.Has(charger.CCS)
	form.CHAdeMO = crit.Connectors.Has(charger.CHAdeMO)

	return finder.Query{Town: form.Town, Criteria: crit}, form, nil
}

func parseMiles(v url.Values, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return f, nil
}

func parseFlag(v url.Values, name string) (bool, error) {
	if !v.Has(name) {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(v.Get(name))) {
	case "1", "true", "on", "yes":
		return true, nil
	case "", "0", "false", "off", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s %q", name, v.Get(name))
	}
}

// HealthHandlerFunc returns an http.HandlerFunc that checks connectivity of
// the store backing the charger cache.
func HealthHandlerFunc(store Pinger, backend string, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok", "backend": backend, "store": "ok"}

		if err := store.Ping(ctx); err != nil {
			log.Error("health check: store ping failed", "backend", backend, "err", err)
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["store"] = "error"
		}

		writeJSON(w, status, body)
	}
}
