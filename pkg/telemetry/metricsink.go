package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSink is the Prometheus half of the Telemetry Sink, grounded on
// the teacher's observability.Metrics: a private registry plus a family
// of counters/histograms. Its methods do not accept a nil receiver; a
// disabled sink is one that is never constructed.
type MetricsSink struct {
	registry *prometheus.Registry

	jobsStarted       *prometheus.CounterVec
	jobsCompleted     *prometheus.CounterVec
	jobsFailed        *prometheus.CounterVec
	jobsCancelled     *prometheus.CounterVec
	sectionsGenerated *prometheus.CounterVec
	sectionsFailed    *prometheus.CounterVec
	llmRequestDur     *prometheus.HistogramVec
}

// NewMetricsSink builds a MetricsSink with its own registry, namespaced
// "sectionforge".
func NewMetricsSink() *MetricsSink {
	const namespace = "sectionforge"
	m := &MetricsSink{registry: prometheus.NewRegistry()}

	m.jobsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "started_total",
		Help: "Total number of generation jobs started.",
	}, []string{"mode"})

	m.jobsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "completed_total",
		Help: "Total number of generation jobs completed.",
	}, []string{"mode"})

	m.jobsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "failed_total",
		Help: "Total number of generation jobs that ended failed.",
	}, []string{"mode"})

	m.jobsCancelled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "cancelled_total",
		Help: "Total number of generation jobs cancelled.",
	}, []string{"mode"})

	m.sectionsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "sections", Name: "generated_total",
		Help: "Total number of sections successfully generated.",
	}, []string{"mode"})

	m.sectionsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "sections", Name: "failed_total",
		Help: "Total number of section generation attempts that failed.",
	}, []string{"mode"})

	m.llmRequestDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "llm", Name: "request_duration_seconds",
		Help:    "LLM chat-completions request duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms .. ~204s
	}, []string{"model"})

	m.registry.MustRegister(
		m.jobsStarted, m.jobsCompleted, m.jobsFailed, m.jobsCancelled,
		m.sectionsGenerated, m.sectionsFailed, m.llmRequestDur,
	)
	return m
}

// Record implements Sink by folding an AuditEvent into the matching
// counter. The mode label rides in event.Detail, which the scheduler and
// the /generate handler set to the mode string for both job and section
// events; an event with an empty Detail is counted under the empty label.
func (m *MetricsSink) Record(event AuditEvent) {
	mode := event.Detail
	switch event.Kind {
	case KindJobStarted:
		m.jobsStarted.WithLabelValues(mode).Inc()
	case KindJobCompleted:
		m.jobsCompleted.WithLabelValues(mode).Inc()
	case KindJobFailed:
		m.jobsFailed.WithLabelValues(mode).Inc()
	case KindJobCancelled:
		m.jobsCancelled.WithLabelValues(mode).Inc()
	case KindSectionGenerated:
		m.sectionsGenerated.WithLabelValues(mode).Inc()
	case KindSectionFailed:
		m.sectionsFailed.WithLabelValues(mode).Inc()
	}
}

// ObserveLLMRequestDuration records one chat-completions round trip. It is
// a separate method rather than part of Record, since request duration
// isn't part of the AuditEvent schema. The LLM Client does not call it.
func (m *MetricsSink) ObserveLLMRequestDuration(model string, d time.Duration) {
	m.llmRequestDur.WithLabelValues(model).Observe(d.Seconds())
}

// Handler exposes the registry for scraping.
func (m *MetricsSink) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
