package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/service"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type auditService interface {
	Start(ctx context.Context, claims *models.JWTClaims, req service.StartAuditRequest) (*models.AuditSessionView, error)
	Scan(ctx context.Context, claims *models.JWTClaims, req service.ScanRequest) (*models.ScanOutcome, error)
	Complete(ctx context.Context, claims *models.JWTClaims) (*models.AuditSessionView, error)
	Cancel(ctx context.Context) (*models.AuditSessionView, error)
	Current() (*models.AuditSessionView, error)
	Sessions(filter service.AuditSessionFilter) []models.AuditSessionView
	Report(id string) (*models.AuditReport, error)
	ReportCSV(role models.UserRole, id string) ([]byte, string, error)
	ReportPDF(role models.UserRole, id string) ([]byte, string, error)
}

// AuditHandler exposes stock opname sessions.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// Start godoc
// @Summary Start stock opname
// @Description Open a session over the current asset collection and make it current.
// @Tags Audit
// @Accept json
// @Produce json
// @Param payload body service.StartAuditRequest true "Auditor"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /audit/sessions [post]
func (h *AuditHandler) Start(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.StartAuditRequest
	if !bindJSON(c, &req, "auditor name is required") {
		return
	}

	session, err := h.service.Start(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Current godoc
// @Summary Current stock opname
// @Description The in-progress session with the assets still to be scanned.
// @Tags Audit
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /audit/current [get]
func (h *AuditHandler) Current(c *gin.Context) {
	session, err := h.service.Current()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Scan godoc
// @Summary Scan asset
// @Description Record a decoded barcode or asset id. Unknown codes return found=false.
// @Tags Audit
// @Accept json
// @Produce json
// @Param payload body service.ScanRequest true "Scanned code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /audit/current/scan [post]
func (h *AuditHandler) Scan(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.ScanRequest
	if !bindJSON(c, &req, "scan code is required") {
		return
	}

	outcome, err := h.service.Scan(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Complete godoc
// @Summary Complete stock opname
// @Description Close the current session. Unscanned assets are recorded as missing.
// @Tags Audit
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /audit/current/complete [post]
func (h *AuditHandler) Complete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	session, err := h.service.Complete(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Cancel godoc
// @Summary Cancel stock opname
// @Description Drop the current-session pointer. The session record keeps status In Progress.
// @Tags Audit
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /audit/current/cancel [post]
func (h *AuditHandler) Cancel(c *gin.Context) {
	session, err := h.service.Cancel(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Sessions godoc
// @Summary Audit history
// @Tags Audit
// @Produce json
// @Param status query string false "In Progress, Completed or Cancelled"
// @Success 200 {object} response.Envelope
// @Router /audit/sessions [get]
func (h *AuditHandler) Sessions(c *gin.Context) {
	var filter service.AuditSessionFilter
	if status := c.Query("status"); status != "" {
		s := models.AuditSessionStatus(status)
		filter.Status = &s
	}
	sessions := h.service.Sessions(filter)
	response.JSON(c, http.StatusOK, sessions, nil, map[string]interface{}{"total": len(sessions)})
}

// Report godoc
// @Summary Audit report
// @Description Session summary with the assets that were not found.
// @Tags Audit
// @Produce json
// @Param id path string true "Session ID"
// @Param format query string false "json (default), csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /audit/sessions/{id}/report [get]
func (h *AuditHandler) Report(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	id := c.Param("id")
	switch c.DefaultQuery("format", "json") {
	case "csv":
		data, filename, err := h.service.ReportCSV(claims.Role, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, filename, "text/csv", data)
	case "pdf":
		data, filename, err := h.service.ReportPDF(claims.Role, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, filename, "application/pdf", data)
	default:
		report, err := h.service.Report(id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, report, nil)
	}
}
