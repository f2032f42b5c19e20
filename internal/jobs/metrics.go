package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for background jobs.
type Metrics struct {
	runs          *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors against the given registerer. A nil
// registerer means the process-wide default, which may only be registered
// against once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return newMetrics(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nectar_jobs_total",
			Help: "Job executions by job name and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nectar_jobs_failures_total",
			Help: "Failed job executions by job name.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nectar_job_duration_seconds",
			Help:    "Job execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nectar_job_notifications_total",
			Help: "Outbound mails produced by jobs, by kind.",
		}, []string{"kind"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.notifications)
	return m
}

// Tracker times a single job run. The zero or nil tracker is a no-op so
// handlers never have to nil-check their metrics.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing one run of the named job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run and passes the error through unchanged, so it can wrap
// a handler's return value.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddNotifications counts outbound mails of the given kind.
func (m *Metrics) AddNotifications(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.notifications.WithLabelValues(kind).Add(float64(count))
}
