// Package metrics holds the prometheus collectors for task submission, the
// stage pipeline, event publishing and notification delivery.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsmaker"

// Submission outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDenied    = "denied"
	OutcomeInvalid   = "invalid"
	OutcomeQueueFull = "queue_full"
	OutcomeFailed    = "failed"
)

// Delivery outcomes.
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliveryDropped   = "dropped"
)

// Worker job failure reasons.
const (
	JobFailurePanic     = "panic"
	JobFailureAbandoned = "abandoned"
	JobFailureError     = "error"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	submissions     *prometheus.CounterVec
	tasksFinished   *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	stageErrors     *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	jobFailures     *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: outcome (accepted, denied, invalid, queue_full, failed)
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "submissions_total",
			Help:      "Task submissions by outcome",
		}, []string{"outcome"}),

		// Labels: state (ready, error)
		tasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "finished_total",
			Help:      "Tasks that reached a terminal state",
		}, []string{"state"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that recorded an error",
		}, []string{"stage"}),

		publishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Events that could not be published",
		}, []string{"kind"}),

		// Labels: sink, outcome (delivered, failed, dropped)
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by sink and outcome",
		}, []string{"sink", "outcome"}),

		// Labels: reason (panic, abandoned, error)
		jobFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workers",
			Name:      "job_failures_total",
			Help:      "Worker pool jobs that failed or were abandoned",
		}, []string{"reason"}),
	}
}

// ObserveSubmission counts one submission.
func (m *Metrics) ObserveSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveTaskFinished counts a terminal transition.
func (m *Metrics) ObserveTaskFinished(state string) {
	m.tasksFinished.WithLabelValues(state).Inc()
}

// ObserveStage implements pipeline.StageObserver.
func (m *Metrics) ObserveStage(stage string, duration time.Duration, failed bool) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if failed {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// ObservePublishFailure counts an event that was lost on publish.
func (m *Metrics) ObservePublishFailure(kind string) {
	m.publishFailures.WithLabelValues(kind).Inc()
}

// ObserveDelivery counts a notification delivery attempt.
func (m *Metrics) ObserveDelivery(sink, outcome string) {
	m.deliveries.WithLabelValues(sink, outcome).Inc()
}

// ObserveJobFailure counts a job reported by the worker pool error handler.
func (m *Metrics) ObserveJobFailure(reason string) {
	m.jobFailures.WithLabelValues(reason).Inc()
}

// Handler serves the collectors registered on gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
