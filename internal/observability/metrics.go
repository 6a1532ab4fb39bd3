// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Event outcomes recorded by the dispatcher.
const (
	OutcomeHandled = "handled"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	EventsReceived *prometheus.CounterVec
	EventsHandled  *prometheus.CounterVec
	ParseErrors    prometheus.Counter

	// Mapping metrics
	HandlerLatency        *prometheus.HistogramVec
	EntitiesWritten       *prometheus.CounterVec
	PriceSnapshotsCreated *prometheus.CounterVec

	// Contract read metrics
	ContractCallLatency *prometheus.HistogramVec
	ContractCallErrors  *prometheus.CounterVec
	ContractCallRetries *prometheus.CounterVec

	// Progress metrics
	LastProcessedBlock  prometheus.Gauge
	LastSuccessfulEvent prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "neuron_indexer"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_received_total",
			Help:      "Total number of events received by kind",
		}, []string{"kind"}),
		EventsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_handled_total",
			Help:      "Total number of events by kind and outcome",
		}, []string{"kind", "outcome"}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "parse_errors_total",
			Help:      "Total number of envelopes that could not be parsed",
		}),

		HandlerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "handler_duration_seconds",
			Help:      "Event handler latency by kind",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"kind"}),
		EntitiesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "entities_written_total",
			Help:      "Total number of entity upserts by entity",
		}, []string{"entity"}),
		PriceSnapshotsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapping",
			Name:      "price_snapshots_total",
			Help:      "Total number of pool price snapshots by round phase",
		}, []string{"phase"}),

		ContractCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "call_duration_seconds",
			Help:      "Contract read latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ContractCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "call_errors_total",
			Help:      "Total number of failed contract reads by method",
		}, []string{"method"}),
		ContractCallRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "call_retries_total",
			Help:      "Total number of retried contract reads by method",
		}, []string{"method"}),

		LastProcessedBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "last_processed_block",
			Help:      "Block number of the last handled event",
		}),
		LastSuccessfulEvent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_event_timestamp",
			Help:      "Unix timestamp of the last successfully handled event",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordEventReceived increments the received counter for kind.
func RecordEventReceived(kind string) {
	DefaultMetrics.EventsReceived.WithLabelValues(kind).Inc()
}

// RecordEventOutcome records how an event of kind was dispatched.
func RecordEventOutcome(kind, outcome string) {
	DefaultMetrics.EventsHandled.WithLabelValues(kind, outcome).Inc()
}

// RecordParseError increments the envelope parse error counter.
func RecordParseError() {
	DefaultMetrics.ParseErrors.Inc()
}

// RecordHandlerLatency records handler latency.
func RecordHandlerLatency(kind string, seconds float64) {
	DefaultMetrics.HandlerLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordEntityWritten increments the upsert counter for entity.
func RecordEntityWritten(entity string) {
	DefaultMetrics.EntitiesWritten.WithLabelValues(entity).Inc()
}

// RecordPriceSnapshot increments the snapshot counter for a round phase.
func RecordPriceSnapshot(phase string) {
	DefaultMetrics.PriceSnapshotsCreated.WithLabelValues(phase).Inc()
}

// RecordContractCall records contract read latency and failure.
func RecordContractCall(method string, seconds float64, err error) {
	DefaultMetrics.ContractCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.ContractCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordContractRetry increments the retry counter for method.
func RecordContractRetry(method string) {
	DefaultMetrics.ContractCallRetries.WithLabelValues(method).Inc()
}

// UpdateProgress updates the progress gauges.
func UpdateProgress(blockNumber uint64, unixSeconds int64) {
	DefaultMetrics.LastProcessedBlock.Set(float64(blockNumber))
	DefaultMetrics.LastSuccessfulEvent.Set(float64(unixSeconds))
}
