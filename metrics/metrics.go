// Package metrics holds the Prometheus instruments for tree walks and
// engine queries.
//
// Instruments are registered on a caller-supplied registry rather than the
// global default, so independent managers (and tests) do not collide. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeUnsupported = "unsupported"
	OutcomeCached      = "cached"
)

// Metrics is the set of instruments.
type Metrics struct {
	registry *prometheus.Registry

	browseFetches   *prometheus.CounterVec
	browseCacheHits prometheus.Counter

	engineQueries       *prometheus.CounterVec
	engineQueryDuration *prometheus.HistogramVec
	cameraFailures      *prometheus.CounterVec
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the instruments on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		browseFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "periscope_browse_fetches_total",
			Help: "Media tree nodes fetched from the host, by outcome",
		}, []string{"outcome"}),

		browseCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "periscope_browse_cache_hits_total",
			Help: "Media tree nodes served from the browse cache",
		}),

		engineQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "periscope_engine_queries_total",
			Help: "Per-camera engine queries, by engine, query type and outcome",
		}, []string{"engine", "type", "outcome"}),

		engineQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "periscope_engine_query_duration_seconds",
			Help:    "Per-camera engine query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"engine", "type"}),

		cameraFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "periscope_camera_failures_total",
			Help: "Cameras omitted from a query result because their query failed",
		}, []string{"engine"}),
	}
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// BrowseFetch records one fetch from the host.
func (m *Metrics) BrowseFetch(err error) {
	if m == nil {
		return
	}
	m.browseFetches.WithLabelValues(outcome(err)).Inc()
}

// BrowseCacheHit records one node served from cache.
func (m *Metrics) BrowseCacheHit() {
	if m == nil {
		return
	}
	m.browseCacheHits.Inc()
}

// EngineQuery records one per-camera query. Outcome is one of the Outcome
// constants.
func (m *Metrics) EngineQuery(engine, queryType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.engineQueries.WithLabelValues(engine, queryType, outcome).Inc()
	m.engineQueryDuration.WithLabelValues(engine, queryType).Observe(elapsed.Seconds())
}

// CameraFailure records a camera dropped from a result.
func (m *Metrics) CameraFailure(engine string) {
	if m == nil {
		return
	}
	m.cameraFailures.WithLabelValues(engine).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
