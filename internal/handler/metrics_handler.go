package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/service"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type systemProbe interface {
	Ping(ctx context.Context) error
	Ready(ctx context.Context) (service.ReadinessReport, error)
}

// MetricsHandler exposes observability and keep-warm endpoints.
type MetricsHandler struct {
	metrics http.Handler
	probe   systemProbe
}

// NewMetricsHandler constructs a metrics handler. metrics may be nil.
func NewMetricsHandler(metrics http.Handler, probe systemProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, probe: probe}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether every dependency answers.
func (h *MetricsHandler) Ready(c *gin.Context) {
	report, err := h.probe.Ready(c.Request.Context())
	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// Ping godoc
// @Summary Keep-warm ping
// @Description Runs a trivial query so the database stays warm.
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /system/ping [get]
func (h *MetricsHandler) Ping(c *gin.Context) {
	if err := h.probe.Ping(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}
