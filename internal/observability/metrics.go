package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_coach"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Capture metrics
	RecordingsStarted prometheus.Counter
	RecordingsStopped prometheus.Counter

	// Grading metrics: outcome is "ok" or "degraded"
	Gradings *prometheus.CounterVec

	// Voice analysis metrics: source is "remote", "heuristic", or "insufficient"
	Analyses *prometheus.CounterVec

	// Persistence metrics: outcome is "created" or "duplicate"
	AnswerSaves *prometheus.CounterVec

	// Remote model call latency, labeled by operation (grade, analyze, generate)
	ModelLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates and registers all metrics with the given registerer.
// Tests pass a fresh registry to avoid cross-test pollution.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_started_total",
			Help:      "Total number of capture attempts started",
		}),
		RecordingsStopped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_stopped_total",
			Help:      "Total number of capture attempts stopped",
		}),
		Gradings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gradings_total",
			Help:      "Total number of grading runs by outcome",
		}, []string{"outcome"}),
		Analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_analyses_total",
			Help:      "Total number of voice analyses by result source",
		}, []string{"source"}),
		AnswerSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_saves_total",
			Help:      "Total number of answer save requests by outcome",
		}, []string{"outcome"}),
		ModelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Latency of remote model calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
	}
}
