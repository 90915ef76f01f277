package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

// Auth event names used as metric labels.
const (
	EventLogin             = "login"
	EventRegister          = "register"
	EventRefresh           = "refresh"
	EventLogout            = "logout"
	EventPasswordReset     = "password_reset"
	EventEmailVerification = "email_verification"
	EventPasswordChange    = "password_change"
	OutcomeSuccess         = "success"
	OutcomeFailure         = "failure"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
	lockouts        prometheus.Counter
	flushDuration   prometheus.Histogram
	flushFailures   prometheus.Counter
	tokensSwept     *prometheus.CounterVec
	emailsDispatch  *prometheus.CounterVec
	cacheRequests   *prometheus.CounterVec
	cacheWrite      prometheus.Histogram
	completions     *prometheus.HistogramVec

	requestCount         uint64
	requestDurationTotal uint64
	flushCount           uint64
	flushFailureCount    uint64
	flushDurationTotal   uint64
	lockoutCount         uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	authEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Authentication flow outcomes",
	}, []string{"event", "outcome", "reason"})

	lockouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_account_lockouts_total",
		Help: "Accounts locked after repeated failed logins",
	})

	flushDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "store_flush_duration_seconds",
		Help:    "Time spent writing the JSON store to disk",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	flushFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_flush_failures_total",
		Help: "Failed JSON store writes",
	})

	tokensSwept := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokens_swept_total",
		Help: "Token records removed by the cleanup sweep",
	}, []string{"kind"})

	emailsDispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_dispatched_total",
		Help: "Email jobs handed to a transport",
	}, []string{"template", "outcome"})

	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_duration_seconds",
		Help:    "Duration of cache writes",
		Buckets: prometheus.DefBuckets,
	})

	completions := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_completion_duration_seconds",
		Help:    "Latency of character replies by source and outcome",
		Buckets: []float64{0.05, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, authEvents, lockouts, flushDuration, flushFailures, tokensSwept, emailsDispatch, cacheRequests, cacheWrite, completions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		authEvents:      authEvents,
		lockouts:        lockouts,
		flushDuration:   flushDuration,
		flushFailures:   flushFailures,
		tokensSwept:     tokensSwept,
		emailsDispatch:  emailsDispatch,
		cacheRequests:   cacheRequests,
		cacheWrite:      cacheWrite,
		completions:     completions,
	}
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordAuthEvent counts one auth flow outcome. reason is an error code or empty.
func (m *MetricsService) RecordAuthEvent(event, outcome, reason string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, outcome, reason).Inc()
}

// RecordLockout counts an account entering the locked state.
func (m *MetricsService) RecordLockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
	atomic.AddUint64(&m.lockoutCount, 1)
}

// ObserveStoreFlush records one store write. It matches store.FlushObserver.
func (m *MetricsService) ObserveStoreFlush(took time.Duration, err error) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(took.Seconds())
	atomic.AddUint64(&m.flushCount, 1)
	atomic.AddUint64(&m.flushDurationTotal, uint64(took.Nanoseconds()))
	if err != nil {
		m.flushFailures.Inc()
		atomic.AddUint64(&m.flushFailureCount, 1)
	}
}

// RecordSweep counts records removed by a token cleanup run.
func (m *MetricsService) RecordSweep(res models.CleanupResult) {
	if m == nil {
		return
	}
	m.tokensSwept.WithLabelValues("refresh").Add(float64(res.RefreshTokens))
	m.tokensSwept.WithLabelValues("password_reset").Add(float64(res.PasswordResetTokens))
	m.tokensSwept.WithLabelValues("email_verification").Add(float64(res.EmailVerificationTokens))
}

// RecordEmailDispatch counts an email handed to the transport.
func (m *MetricsService) RecordEmailDispatch(template string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.emailsDispatch.WithLabelValues(template, outcome).Inc()
}

// RecordCacheOperation counts a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, _ time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// ObserveCacheWrite records the latency of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveCompletion records one character reply. source is the model name or
// "mock"; a non-nil err marks the run failed.
func (m *MetricsService) ObserveCompletion(source string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.completions.WithLabelValues(source, outcome).Observe(took.Seconds())
}

// Snapshot returns aggregated counters for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	flushes := atomic.LoadUint64(&m.flushCount)
	flushDuration := atomic.LoadUint64(&m.flushDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgFlushMs float64
	if flushes > 0 {
		avgFlushMs = float64(flushDuration) / float64(flushes) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreFlushes:             flushes,
		StoreFlushFailures:       atomic.LoadUint64(&m.flushFailureCount),
		AverageFlushDurationMs:   avgFlushMs,
		AccountLockouts:          atomic.LoadUint64(&m.lockoutCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
