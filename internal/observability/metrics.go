package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "alert_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard service.
type Metrics struct {
	TableLoads       prometheus.Counter
	TableLoadErrors  *prometheus.CounterVec // labels: reason={not_found,invalid_city,malformed,io}
	RowsLoaded       prometheus.Histogram
	TableLoadSeconds prometheus.Histogram

	// City table cache.
	CacheLookups   *prometheus.CounterVec // labels: result={hit,miss}
	CacheEvictions *prometheus.CounterVec // labels: cause={capacity,expired,file_changed}
	CachedTables   prometheus.Gauge

	// Dashboard computations.
	Computations       prometheus.Counter
	ComputeDuration    prometheus.Histogram
	SnapshotsPublished *prometheus.CounterVec // labels: outcome={success,error}
	CitiesAvailable    prometheus.Gauge

	// HTTP surface.
	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.TableLoads,
		m.TableLoadErrors,
		m.RowsLoaded,
		m.TableLoadSeconds,
		m.CacheLookups,
		m.CacheEvictions,
		m.CachedTables,
		m.Computations,
		m.ComputeDuration,
		m.SnapshotsPublished,
		m.CitiesAvailable,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics that no endpoint exposes, for
// one-shot commands.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TableLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_loads_total",
			Help:      "Per-city data files read from disk.",
		}),
		TableLoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_load_errors_total",
			Help:      "Failed per-city loads by reason.",
		}, []string{"reason"}),
		RowsLoaded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows per loaded city table.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		TableLoadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "table_load_duration_seconds",
			Help:      "Duration of reading and parsing one city file.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_cache_lookups_total",
			Help:      "City table cache lookups by result.",
		}, []string{"result"}),
		CacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_cache_evictions_total",
			Help:      "City tables dropped from the cache by cause.",
		}, []string{"cause"}),
		CachedTables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_cache_entries",
			Help:      "City tables currently cached.",
		}),
		Computations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Dashboard outputs computed.",
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Duration of a full dashboard computation including table lookup.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Dashboard snapshots written to Kafka by outcome.",
		}, []string{"outcome"}),
		CitiesAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cities_available",
			Help:      "Cities listed in the city list file.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
