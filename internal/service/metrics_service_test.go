package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/persona-chat-api/internal/models"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodPost, "/api/auth/login", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/auth/login", 401, 40*time.Millisecond)
	m.RecordLockout()
	m.ObserveStoreFlush(time.Millisecond, nil)
	m.ObserveStoreFlush(time.Millisecond, errors.New("disk full"))
	m.RecordSweep(models.CleanupResult{RefreshTokens: 3, EmailVerificationTokens: 1})
	m.RecordEmailDispatch("welcome", nil)
	m.RecordEmailDispatch("welcome", errors.New("queue full"))
	m.RecordCacheOperation(true, 0)
	m.RecordCacheOperation(false, 0)
	m.RecordCacheOperation(false, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.lockouts))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.flushFailures))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.tokensSwept.WithLabelValues("refresh")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.emailsDispatch.WithLabelValues("welcome", OutcomeFailure)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheRequests.WithLabelValues("miss")))

	m.ObserveCompletion("mock", 10*time.Millisecond, nil)
	m.ObserveCompletion("gemini-2.0-flash", time.Second, errors.New("unavailable"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.completions))

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.StoreFlushes)
	assert.Equal(t, uint64(1), snap.StoreFlushFailures)
	assert.Equal(t, uint64(1), snap.AccountLockouts)
}

func TestMetricsServiceHandlerServesRegistry(t *testing.T) {
	m := NewMetricsService()
	m.RecordAuthEvent("login", OutcomeSuccess, "")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_events_total")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/health", 200, time.Millisecond)
		m.RecordAuthEvent("login", OutcomeFailure, "INVALID_CREDENTIALS")
		m.RecordLockout()
		m.ObserveStoreFlush(time.Millisecond, nil)
		m.RecordSweep(models.CleanupResult{})
		m.RecordEmailDispatch("welcome", nil)
		m.RecordCacheOperation(true, 0)
		m.ObserveCacheWrite(time.Millisecond)
		m.ObserveCompletion("mock", time.Millisecond, nil)
	})
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
