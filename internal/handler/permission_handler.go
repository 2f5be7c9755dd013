package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/internal/service"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type permissionService interface {
	Catalog() service.PermissionCatalog
	Snapshot() map[models.UserRole]permission.RoleConfig
	ForRole(role models.UserRole) (permission.RoleConfig, error)
	Update(ctx context.Context, claims *models.JWTClaims, role models.UserRole, feature permission.Feature, req service.UpdatePermissionRequest) (permission.FeaturePermission, error)
}

// PermissionHandler serves the role permission editor.
type PermissionHandler struct {
	service permissionService
}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler(svc permissionService) *PermissionHandler {
	return &PermissionHandler{service: svc}
}

// List godoc
// @Summary Role permissions
// @Description Every role's permission table together with the editor catalog.
// @Tags Permissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Snapshot(), nil, map[string]interface{}{
		"catalog": h.service.Catalog(),
	})
}

// Mine godoc
// @Summary Caller permissions
// @Description The permission table of the authenticated user's role.
// @Tags Permissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /permissions/me [get]
func (h *PermissionHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	cfg, err := h.service.ForRole(claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil, map[string]interface{}{"role": claims.Role})
}

// Role godoc
// @Summary Permissions of one role
// @Tags Permissions
// @Produce json
// @Param role path string true "Role"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /permissions/{role} [get]
func (h *PermissionHandler) Role(c *gin.Context) {
	cfg, err := h.service.ForRole(models.UserRole(c.Param("role")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Update godoc
// @Summary Replace a role permission
// @Description Full replace of one role/feature record. Partial payloads are not merged.
// @Tags Permissions
// @Accept json
// @Produce json
// @Param role path string true "Role"
// @Param feature path string true "Feature key"
// @Param payload body service.UpdatePermissionRequest true "Permission record"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /permissions/{role}/{feature} [put]
func (h *PermissionHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.UpdatePermissionRequest
	if !bindJSON(c, &req, "invalid permission payload") {
		return
	}

	cfg, err := h.service.Update(c.Request.Context(), claims, models.UserRole(c.Param("role")), permission.Feature(c.Param("feature")), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
