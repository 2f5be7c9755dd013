package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type assetService interface {
	List(role models.UserRole, filter models.AssetFilter) []models.AssetView
	PendingDeletion(role models.UserRole) []models.AssetView
	Get(role models.UserRole, id string) (*models.AssetView, error)
	Create(ctx context.Context, claims *models.JWTClaims, req models.AssetRequest) (*models.AssetView, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req models.AssetRequest) (*models.AssetView, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	RequestDelete(ctx context.Context, claims *models.JWTClaims, id string) (*models.AssetView, error)
	ApproveDelete(ctx context.Context, claims *models.JWTClaims, id string) error
	RejectDelete(ctx context.Context, claims *models.JWTClaims, id string) (*models.AssetView, error)
}

// AssetHandler exposes asset CRUD and the deletion approval queue.
type AssetHandler struct {
	service assetService
}

// NewAssetHandler constructs an AssetHandler.
func NewAssetHandler(svc assetService) *AssetHandler {
	return &AssetHandler{service: svc}
}

// List godoc
// @Summary List assets
// @Description List assets visible to the caller's role. Assets pending deletion are hidden unless include_pending is set.
// @Tags Assets
// @Produce json
// @Param search query string false "Name or barcode"
// @Param category query string false "Category"
// @Param location_id query string false "Location ID"
// @Param status query string false "Baik, Perbaikan, Rusak or Hilang"
// @Param include_pending query bool false "Include assets pending deletion"
// @Success 200 {object} response.Envelope
// @Router /assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	filter := models.AssetFilter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		LocationID: c.Query("location_id"),
	}
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		filter.Status = &s
	}
	if pending, err := strconv.ParseBool(c.Query("include_pending")); err == nil {
		filter.IncludePending = pending
	}

	assets := h.service.List(claims.Role, filter)
	response.JSON(c, http.StatusOK, assets, nil, map[string]interface{}{"total": len(assets)})
}

// Get godoc
// @Summary Get asset
// @Tags Assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	asset, err := h.service.Get(claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// Create godoc
// @Summary Create asset
// @Tags Assets
// @Accept json
// @Produce json
// @Param payload body models.AssetRequest true "Asset payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req models.AssetRequest
	if !bindJSON(c, &req, "invalid asset payload") {
		return
	}

	asset, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, asset)
}

// Update godoc
// @Summary Replace asset
// @Description Full replace. Restricted fields the role may not edit keep their stored value.
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body models.AssetRequest true "Asset payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req models.AssetRequest
	if !bindJSON(c, &req, "invalid asset payload") {
		return
	}

	asset, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// Delete godoc
// @Summary Delete asset
// @Description Remove an asset immediately, bypassing the approval queue.
// @Tags Assets
// @Param id path string true "Asset ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RequestDelete godoc
// @Summary Request asset deletion
// @Description Move an asset into the approval queue.
// @Tags Approvals
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assets/{id}/deletion-request [post]
func (h *AssetHandler) RequestDelete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	asset, err := h.service.RequestDelete(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}

// Pending godoc
// @Summary List pending deletions
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *AssetHandler) Pending(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	assets := h.service.PendingDeletion(claims.Role)
	response.JSON(c, http.StatusOK, assets, nil, map[string]interface{}{"total": len(assets)})
}

// Approve godoc
// @Summary Approve deletion
// @Tags Approvals
// @Param id path string true "Asset ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/approve [post]
func (h *AssetHandler) Approve(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.service.ApproveDelete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Reject godoc
// @Summary Reject deletion
// @Tags Approvals
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/reject [post]
func (h *AssetHandler) Reject(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	asset, err := h.service.RejectDelete(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, asset, nil)
}
