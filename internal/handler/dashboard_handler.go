package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/middleware"
	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, role models.UserRole) models.DashboardStats
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Active asset count, book value, pending approvals, damaged or lost count and active audit progress.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	start := time.Now()
	stats := h.service.Stats(c.Request.Context(), claims.Role)
	middleware.SetCacheHit(c, stats.Cached)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, stats, nil, meta)
}
