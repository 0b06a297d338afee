// Package metrics holds the prometheus instruments for repository queries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query evaluation modes.
const (
	ModeSQL    = "sql"
	ModeMemory = "memory"
)

// Metrics records repository activity. A nil *Metrics records nothing.
type Metrics struct {
	queries   *prometheus.CounterVec
	rows      *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "criteria_repository_queries_total",
			Help: "Number of repository queries by collection and evaluation mode",
		}, []string{"collection", "mode"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "criteria_repository_rows_total",
			Help: "Number of rows returned by repository queries",
		}, []string{"collection", "mode"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "criteria_repository_fallbacks_total",
			Help: "Number of queries evaluated in memory because they could not be translated to SQL",
		}, []string{"collection"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "criteria_repository_query_duration_seconds",
			Help:    "Repository query latency by evaluation mode",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"mode"}),
	}
}

// ObserveQuery records one finished query.
func (m *Metrics) ObserveQuery(collection, mode string, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(collection, mode).Inc()
	m.rows.WithLabelValues(collection, mode).Add(float64(rows))
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveFallback records a query that could not be pushed down to SQL.
func (m *Metrics) ObserveFallback(collection string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(collection).Inc()
}
