package observability

import (
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the JobFlow backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	navigations      *prometheus.CounterVec
	jobsPublished    prometheus.Counter
	applications     prometheus.Counter
	enrollments      *prometheus.CounterVec
	videoCompletions prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobflow_request_duration_seconds",
				Help:    "Duration of requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_navigation_total",
				Help: "Page transitions by target page.",
			},
			[]string{"page"},
		),
		jobsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jobflow_jobs_published_total",
				Help: "Jobs published by companies.",
			},
		),
		applications: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jobflow_applications_total",
				Help: "Job applications submitted.",
			},
		),
		enrollments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_enrollments_total",
				Help: "Course enrollments by source.",
			},
			[]string{"source"},
		),
		videoCompletions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jobflow_video_completions_total",
				Help: "Videos marked as completed.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrNavigation(page string) {
	m.navigations.WithLabelValues(page).Inc()
}

func (m *Metrics) IncrJobPublished() {
	m.jobsPublished.Inc()
}

func (m *Metrics) IncrApplication() {
	m.applications.Inc()
}

func (m *Metrics) IncrEnrollment(source string) {
	m.enrollments.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrVideoCompletion() {
	m.videoCompletions.Inc()
}

// Summary returns the cumulative activity counters for GET /v1/metrics/summary.
func (m *Metrics) Summary() *domain.ActivitySummary {
	hits := sumCounterVec(m.cacheHits)
	misses := sumCounterVec(m.cacheMisses)
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.ActivitySummary{
		Navigations:     int64(sumCounterVec(m.navigations)),
		JobsPublished:   int64(counterValue(m.jobsPublished)),
		Applications:    int64(counterValue(m.applications)),
		Enrollments:     int64(sumCounterVec(m.enrollments)),
		VideoCompletion: int64(counterValue(m.videoCompletions)),
		CEPLookupErrors: int64(getCounterValue(m.externalErrors, "viacep")),
		CacheHitRate:    hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds up every label combination of cv.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	total := float64(0)
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
