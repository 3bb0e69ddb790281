// Package metrics exposes Prometheus collectors for the API on a private
// registry.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors for the API.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth and rate limiting.
	AuthFailuresTotal        *prometheus.CounterVec
	AuthSuccessesTotal       *prometheus.CounterVec
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Background side effects.
	DispatchJobsTotal    *prometheus.CounterVec
	DispatchJobDuration  *prometheus.HistogramVec
	DispatchDroppedTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tasksync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"reason"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_auth_successes_total",
			Help: "Total number of successful logins and signups.",
		}, []string{"kind"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"limiter"}),

		DispatchJobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_dispatch_jobs_total",
			Help: "Total number of background jobs run, by outcome.",
		}, []string{"job", "result"}),

		DispatchJobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tasksync_dispatch_job_duration_seconds",
			Help:    "Background job duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),

		DispatchDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasksync_dispatch_dropped_total",
			Help: "Total number of background jobs dropped before running.",
		}, []string{"job"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tasksync_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.RateLimitRejectionsTotal,
		m.DispatchJobsTotal,
		m.DispatchJobDuration,
		m.DispatchDroppedTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDBStats exposes connection pool statistics for db.
func (m *Metrics) RegisterDBStats(db *sql.DB) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, "tasksync"))
}

// RegisterQueueDepth exposes the number of queued background jobs.
func (m *Metrics) RegisterQueueDepth(pending func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tasksync_dispatch_queue_depth",
		Help: "Background jobs waiting for a worker.",
	}, func() float64 { return float64(pending()) }))
}

// IncAuthFailure increments the auth failure counter.
func (m *Metrics) IncAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// IncAuthSuccess increments the auth success counter.
func (m *Metrics) IncAuthSuccess(kind string) {
	m.AuthSuccessesTotal.WithLabelValues(kind).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(limiter string) {
	m.RateLimitRejectionsTotal.WithLabelValues(limiter).Inc()
}

// JobFinished records a completed background job.
func (m *Metrics) JobFinished(name string, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.DispatchJobsTotal.WithLabelValues(name, result).Inc()
	m.DispatchJobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// JobDropped records a background job that never ran.
func (m *Metrics) JobDropped(name string) {
	m.DispatchDroppedTotal.WithLabelValues(name).Inc()
}

// Middleware records request count and latency keyed by the matched chi
// route pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
