package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SequencerMetrics records queue and mutation outcomes for a cart
// mutation sequencer.
type SequencerMetrics struct {
	queueDepth prometheus.Gauge
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
}

// NewSequencerMetrics registers the sequencer metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewSequencerMetrics(reg prometheus.Registerer) *SequencerMetrics {
	if reg == nil {
		return &SequencerMetrics{}
	}
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_mutation_queue_depth",
		Help: "Mutations waiting behind the one in flight.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_mutation_duration_seconds",
		Help:    "Duration of cart mutations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_success",
		Help: "Successful cart mutations.",
	}, []string{"kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutation_failure",
		Help: "Failed cart mutations.",
	}, []string{"kind"})
	reg.MustRegister(queueDepth, duration, success, failure)
	return &SequencerMetrics{
		queueDepth: queueDepth,
		duration:   duration,
		success:    success,
		failure:    failure,
	}
}

// SetQueueDepth records the current number of queued mutations.
func (s *SequencerMetrics) SetQueueDepth(depth int) {
	if s == nil || s.queueDepth == nil {
		return
	}
	s.queueDepth.Set(float64(depth))
}

// ObserveDuration records the execution time for a mutation kind.
func (s *SequencerMetrics) ObserveDuration(kind string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for a mutation kind.
func (s *SequencerMetrics) IncSuccess(kind string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailure increments the failure counter for a mutation kind.
func (s *SequencerMetrics) IncFailure(kind string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
