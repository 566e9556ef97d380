package observability

import (
	"net/http"
	"strconv"
	"time"

	"taxonomy/application/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service. Each collector
// owns its registry, so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Engine metrics
	Mutations        *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec
	ActiveSessions   prometheus.Gauge
	InFlight         prometheus.Gauge

	// Remote metrics
	RemoteCalls    *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryErrors   *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tree_mutations_total",
				Help:      "Tree mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		MutationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tree_mutation_duration_seconds",
				Help:      "Tree mutation duration including remote work",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions held in the registry",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mutations_in_flight",
			Help:      "Mutations awaiting remote work",
		}),
		RemoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Calls to the classifier and persistence services",
			},
			[]string{"service", "operation", "status"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Remote call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Queries dispatched through the query bus",
			},
			[]string{"query"},
		),
		QueryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "Queries that returned an error",
			},
			[]string{"query"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Mutations,
		c.MutationDuration,
		c.ActiveSessions,
		c.InFlight,
		c.RemoteCalls,
		c.RemoteDuration,
		c.Queries,
		c.QueryErrors,
		c.QueryDuration,
	)
	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMutation implements ports.Metrics
func (c *Collector) RecordMutation(operation, outcome string, duration time.Duration) {
	c.Mutations.WithLabelValues(operation, outcome).Inc()
	c.MutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRemoteCall implements ports.Metrics
func (c *Collector) RecordRemoteCall(service, operation string, err error, duration time.Duration) {
	c.RemoteCalls.WithLabelValues(service, operation, callStatus(err)).Inc()
	c.RemoteDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// SetActiveSessions implements ports.Metrics
func (c *Collector) SetActiveSessions(n int) {
	c.ActiveSessions.Set(float64(n))
}

// SetInFlight implements ports.Metrics
func (c *Collector) SetInFlight(n int) {
	c.InFlight.Set(float64(n))
}

// ObserveQuery records one query bus dispatch
func (c *Collector) ObserveQuery(name string, err error, elapsed time.Duration) {
	c.Queries.WithLabelValues(name).Inc()
	if err != nil {
		c.QueryErrors.WithLabelValues(name).Inc()
	}
	c.QueryDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ ports.Metrics = (*Collector)(nil)
