package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the router's non-handler dependencies.
type RouterConfig struct {
	Store              Pinger
	StoreBackend       string
	RateLimitPerMinute int
}

// NewRouter builds and returns the Chi router with all routes configured.
// Search routes are rate limited per IP; health and metrics are not.
func NewRouter(handlers *Handlers, cfg RouterConfig, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/api/v1/health", HealthHandlerFunc(cfg.Store, cfg.StoreBackend, log))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}
		r.Get("/", handlers.Page)
		r.Get("/api/v1/chargers", handlers.SearchChargers)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
