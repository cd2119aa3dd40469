package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream API calls by api (directory, weather, geocoding) and outcome.
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drychargers_upstream_requests_total",
			Help: "Total number of requests to upstream geodata APIs",
		},
		[]string{"api", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drychargers_upstream_request_duration_seconds",
			Help:    "Upstream API latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api"},
	)

	// Pipeline runs by final state.
	pipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drychargers_pipeline_runs_total",
			Help: "Total number of enrichment pipeline runs by final state",
		},
		[]string{"state"},
	)

	cachedChargers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drychargers_cached_chargers",
			Help: "Number of charger records in the cache",
		},
	)
)

// ObserveUpstream records one upstream call.
func ObserveUpstream(api string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	upstreamRequestsTotal.WithLabelValues(api, status).Inc()
	upstreamRequestDuration.WithLabelValues(api).Observe(time.Since(start).Seconds())
}

// ObservePipelineRun records the final state of a pipeline run.
func ObservePipelineRun(state string) {
	pipelineRunsTotal.WithLabelValues(state).Inc()
}

// SetCachedChargers records the current cache size.
func SetCachedChargers(n int) {
	cachedChargers.Set(float64(n))
}
