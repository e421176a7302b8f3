// Package metrics registers the Prometheus instrumentation: provider fetch
// outcomes and latency, cache effectiveness, breaker state, and signal
// computation counts. Exposed over /metrics in monitor mode.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// breaker states mapped to gauge values
var breakerStates = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// Registry owns a private Prometheus registry and the glidepath metric set.
type Registry struct {
	registry *prometheus.Registry

	fetchRequests *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
	computations  prometheus.Counter
}

// New creates a registry with all metrics registered, including the standard
// Go runtime collectors.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		fetchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glidepath_fetch_requests_total",
				Help: "Upstream chart requests by provider and result",
			},
			[]string{"provider", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glidepath_fetch_duration_seconds",
				Help:    "Upstream chart request latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"provider"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glidepath_cache_hits_total",
				Help: "Series cache hits by backend",
			},
			[]string{"backend"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glidepath_cache_misses_total",
				Help: "Series cache misses by backend",
			},
			[]string{"backend"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "glidepath_breaker_state",
				Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),
		computations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "glidepath_signal_computations_total",
				Help: "Completed signal computations",
			},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.fetchRequests,
		r.fetchDuration,
		r.cacheHits,
		r.cacheMisses,
		r.breakerState,
		r.computations,
	)
	return r
}

// ObserveFetch records one upstream request outcome.
func (r *Registry) ObserveFetch(provider, result string, elapsed time.Duration) {
	r.fetchRequests.WithLabelValues(provider, result).Inc()
	r.fetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// CacheHit records a cache hit for the given backend.
func (r *Registry) CacheHit(backend string) { r.cacheHits.WithLabelValues(backend).Inc() }

// CacheMiss records a cache miss for the given backend.
func (r *Registry) CacheMiss(backend string) { r.cacheMisses.WithLabelValues(backend).Inc() }

// SetBreakerState records a provider breaker transition.
func (r *Registry) SetBreakerState(provider, state string) {
	if v, ok := breakerStates[state]; ok {
		r.breakerState.WithLabelValues(provider).Set(v)
	}
}

// SignalComputed counts one completed signal computation.
func (r *Registry) SignalComputed() { r.computations.Inc() }

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gather exposes the underlying registry for tests and the health endpoint.
func (r *Registry) Gather() prometheus.Gatherer { return r.registry }
