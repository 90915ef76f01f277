package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/persona-chat-api/internal/models"
	"github.com/noah-isme/persona-chat-api/internal/service"
	appErrors "github.com/noah-isme/persona-chat-api/pkg/errors"
	"github.com/noah-isme/persona-chat-api/pkg/response"
)

// StoreChecker reports whether the record store is usable.
type StoreChecker interface {
	Check() error
}

// HealthHandler exposes observability endpoints.
type HealthHandler struct {
	metrics *service.MetricsService
	store   StoreChecker
	env     string
	started time.Time
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(metrics *service.MetricsService, store StoreChecker, env string) *HealthHandler {
	return &HealthHandler{metrics: metrics, store: store, env: env, started: time.Now()}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness check
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	status := models.HealthStatus{
		Status:      "healthy",
		Environment: h.env,
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		Checks:      map[string]string{"store": h.storeState()},
		Metrics:     &snapshot,
		Timestamp:   time.Now().UTC(),
	}
	if status.Checks["store"] != "ok" {
		status.Status = "degraded"
	}
	response.OK(c, status, "")
}

// Ready godoc
// @Summary Readiness check
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if state := h.storeState(); state != "ok" {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "record store unavailable"))
		return
	}
	response.OK(c, gin.H{"status": "ready"}, "")
}

func (h *HealthHandler) storeState() string {
	if h.store == nil {
		return "unconfigured"
	}
	if err := h.store.Check(); err != nil {
		return "error"
	}
	return "ok"
}
