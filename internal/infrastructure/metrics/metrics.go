package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledgerd"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Commit metrics
	Commits        *prometheus.CounterVec
	CommitDuration *prometheus.HistogramVec

	// Ledger operation metrics
	Operations *prometheus.CounterVec

	// Audit metrics
	AuditRecordsServed prometheus.Histogram

	// Relay metrics
	RelayPublished prometheus.Counter
	RelayFailures  prometheus.Counter
	RelayCursor    prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Total store commits by entry kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		CommitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "commit_duration_seconds",
				Help:      "Duration of store commits",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Ledger operations served by type and result",
			},
			[]string{"operation", "result"},
		),

		AuditRecordsServed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_records_served",
			Help:      "Number of audit records returned per request",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000},
		}),

		RelayPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_published_total",
			Help:      "Log entries published to the change feed",
		}),
		RelayFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_failures_total",
			Help:      "Failed relay passes",
		}),
		RelayCursor: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_cursor",
			Help:      "Last published log sequence ID",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveRelayPass records the outcome of one relay pass.
func (m *Metrics) ObserveRelayPass(published int, cursor int64, err error) {
	m.RelayPublished.Add(float64(published))
	m.RelayCursor.Set(float64(cursor))
	if err != nil {
		m.RelayFailures.Inc()
	}
}
