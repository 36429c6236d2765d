// Package metrics exposes Prometheus instruments for backend calls made by
// the KYC client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the KYC client instruments. A nil *Metrics records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StepResults     *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "megacoop",
				Subsystem: "kyc",
				Name:      "requests_total",
				Help:      "Backend requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "megacoop",
				Subsystem: "kyc",
				Name:      "request_duration_seconds",
				Help:      "Backend request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StepResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "megacoop",
				Subsystem: "kyc",
				Name:      "step_results_total",
				Help:      "Step submissions by step and result",
			},
			[]string{"step", "result"},
		),
	}
}

// ObserveRequest records one backend call.
func (m *Metrics) ObserveRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveStep records the result of a step submission.
func (m *Metrics) ObserveStep(step, result string) {
	if m == nil {
		return
	}
	m.StepResults.WithLabelValues(step, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
