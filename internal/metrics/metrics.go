package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "hireview"
	subsystem = "dashboard"
)

// Request sources for stats computations
const (
	SourceHTTP    = "http"
	SourceChannel = "channel"
	SourceRefresh = "refresh"
)

// Delivery outcomes for live updates
const (
	OutcomeDelivered = "delivered"
	OutcomeDiscarded = "discarded"
)

// Metrics holds all Prometheus metrics for the stats pipeline
type Metrics struct {
	registry *prometheus.Registry

	// Stats pipeline
	StatsRequestsTotal  *prometheus.CounterVec // labels: source, outcome
	AggregationDuration prometheus.Histogram
	StoreErrorsTotal    prometheus.Counter

	// Live channel
	SessionsActive     prometheus.Gauge
	SessionEventsTotal *prometheus.CounterVec // labels: event (connect|disconnect)
	UpdatesTotal       *prometheus.CounterVec // labels: outcome (delivered|discarded)

	// Intake
	RecordsIngestedTotal    prometheus.Counter
	RecruitersUpsertedTotal prometheus.Counter
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		registry := prometheus.NewRegistry()
		factory := promauto.With(registry)

		instance = &Metrics{
			registry: registry,
			StatsRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stats_requests_total",
				Help:      "Stats computations by source and outcome",
			}, []string{"source", "outcome"}),
			AggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aggregation_duration_seconds",
				Help:      "Time spent computing one aggregate result",
				Buckets:   prometheus.DefBuckets,
			}),
			StoreErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "store_errors_total",
				Help:      "Record store failures and timeouts",
			}),
			SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_active",
				Help:      "Currently connected live channel sessions",
			}),
			SessionEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "session_events_total",
				Help:      "Live channel connects and disconnects",
			}, []string{"event"}),
			UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "updates_total",
				Help:      "statsUpdate payloads by delivery outcome",
			}, []string{"outcome"}),
			RecordsIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "records_ingested_total",
				Help:      "Candidate records accepted by the intake endpoint",
			}),
			RecruitersUpsertedTotal: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "recruiters_upserted_total",
				Help:      "Recruiter metadata upserts",
			}),
		}
	})
	return instance
}

// RecordStatsRequest records one stats computation attempt
func (m *Metrics) RecordStatsRequest(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StatsRequestsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveAggregation records the duration of one aggregation
func (m *Metrics) ObserveAggregation(d time.Duration) {
	m.AggregationDuration.Observe(d.Seconds())
}

// RecordStoreError increments the store failure counter
func (m *Metrics) RecordStoreError() {
	m.StoreErrorsTotal.Inc()
}

// RecordSessionConnect tracks a new live channel session
func (m *Metrics) RecordSessionConnect() {
	m.SessionsActive.Inc()
	m.SessionEventsTotal.WithLabelValues("connect").Inc()
}

// RecordSessionDisconnect tracks a closed live channel session
func (m *Metrics) RecordSessionDisconnect() {
	m.SessionsActive.Dec()
	m.SessionEventsTotal.WithLabelValues("disconnect").Inc()
}

// RecordUpdateDelivered counts a statsUpdate handed to a live connection
func (m *Metrics) RecordUpdateDelivered() {
	m.UpdatesTotal.WithLabelValues(OutcomeDelivered).Inc()
}

// RecordUpdateDiscarded counts a statsUpdate dropped because its session closed
func (m *Metrics) RecordUpdateDiscarded() {
	m.UpdatesTotal.WithLabelValues(OutcomeDiscarded).Inc()
}

// RecordRecordIngested counts an accepted candidate record
func (m *Metrics) RecordRecordIngested() {
	m.RecordsIngestedTotal.Inc()
}

// RecordRecruiterUpserted counts a recruiter metadata upsert
func (m *Metrics) RecordRecruiterUpserted() {
	m.RecruitersUpsertedTotal.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
