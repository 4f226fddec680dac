package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SitesChecked  prometheus.Counter
	SitesDetected prometheus.Counter
	ScansStarted  prometheus.Counter
	ErrorsTotal   *prometheus.CounterVec
	CheckDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	return NewMetricsFor(prometheus.DefaultRegisterer)
}

// NewMetricsFor registers the metrics on a specific registerer. Tests use a
// fresh registry so repeated construction doesn't collide.
func NewMetricsFor(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SitesChecked: factory.NewCounter(prometheus.CounterOpts{
			Name: "phishwatch_sites_checked_total",
			Help: "The total number of suspect URLs analyzed",
		}),
		SitesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "phishwatch_sites_detected_total",
			Help: "The total number of sites persisted above the similarity threshold",
		}),
		ScansStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "phishwatch_scans_started_total",
			Help: "The total number of scans started",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phishwatch_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'screenshot_failed', 'fetch_failed', 'db_save_failed'
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "phishwatch_check_duration_seconds",
			Help:    "Duration of a full per-site similarity check",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
	}
}

func (m *Metrics) IncSitesChecked() {
	m.SitesChecked.Inc()
}

func (m *Metrics) IncSitesDetected() {
	m.SitesDetected.Inc()
}

func (m *Metrics) IncScansStarted() {
	m.ScansStarted.Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) ObserveCheckDuration(seconds float64) {
	m.CheckDuration.Observe(seconds)
}
