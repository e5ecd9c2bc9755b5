// internal/metrics/metrics.go

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Query paths
const (
	PathSpatial  = "spatial"
	PathFallback = "fallback"
	PathPlain    = "plain"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	queries     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	feedClients prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safetails",
			Subsystem: "proximity",
			Name:      "queries_total",
			Help:      "Proximity queries served, by profile and query path.",
		}, []string{"profile", "path"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safetails",
			Subsystem: "proximity",
			Name:      "failures_total",
			Help:      "Proximity queries that failed, by profile and error kind.",
		}, []string{"profile", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safetails",
			Subsystem: "proximity",
			Name:      "query_duration_seconds",
			Help:      "Store time spent per proximity query.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"profile", "path"}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "safetails",
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Connected live alert feed clients.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.queries, m.failures, m.duration, m.feedClients)
	}

	return m
}

// ObserveQuery records a completed query
func (m *Metrics) ObserveQuery(profile, path string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(profile, path).Inc()
	m.duration.WithLabelValues(profile, path).Observe(elapsed.Seconds())
}

// ObserveFailure records a failed query
func (m *Metrics) ObserveFailure(profile, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(profile, kind).Inc()
}

// FeedClientConnected tracks a new live feed client
func (m *Metrics) FeedClientConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

// FeedClientDisconnected tracks a live feed client leaving
func (m *Metrics) FeedClientDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}

// QueryCount returns the number of queries seen for a profile and path
func (m *Metrics) QueryCount(profile, path string) float64 {
	c, err := m.queries.GetMetricWithLabelValues(profile, path)
	if err != nil {
		return 0
	}
	return testutil.ToFloat64(c)
}

// FeedClients returns the number of connected live feed clients
func (m *Metrics) FeedClients() float64 {
	return testutil.ToFloat64(m.feedClients)
}
