package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query outcomes recorded by distance_queries_total.
const (
	OutcomeFound    = "found"
	OutcomeInfinite = "infinite"
	OutcomeNotFound = "not_found"
)

// Collector holds the Prometheus metrics of the service on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	DistanceQueries *prometheus.CounterVec
	BFSDuration     prometheus.Histogram

	DatasetReloads *prometheus.CounterVec
	DatasetActors  prometheus.Gauge
	DatasetMovies  prometheus.Gauge
}

// NewCollector creates a collector whose metric names are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
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
		DistanceQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "distance_queries_total",
				Help:      "Distance queries by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		BFSDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bfs_duration_seconds",
				Help:      "Time spent in the bidirectional search",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		DatasetReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_reloads_total",
				Help:      "Dataset artifact reloads by status",
			},
			[]string{"status"},
		),
		DatasetActors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_actors",
				Help:      "Actors in the loaded dataset",
			},
		),
		DatasetMovies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_movies",
				Help:      "Movies in the loaded dataset",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.DistanceQueries,
		c.BFSDuration,
		c.DatasetReloads,
		c.DatasetActors,
		c.DatasetMovies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveQuery(kind, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.DistanceQueries.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeNotFound {
		c.BFSDuration.Observe(elapsed.Seconds())
	}
}

func (c *Collector) ObserveReload(err error, actors, movies int) {
	if c == nil {
		return
	}
	if err != nil {
		c.DatasetReloads.WithLabelValues("error").Inc()
		return
	}
	c.DatasetReloads.WithLabelValues("ok").Inc()
	c.DatasetActors.Set(float64(actors))
	c.DatasetMovies.Set(float64(movies))
}
