package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/service"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type locationService interface {
	List() []models.Location
	Get(id string) (*models.Location, error)
	Tree() []models.LocationNode
	Create(ctx context.Context, claims *models.JWTClaims, req service.LocationRequest) (*models.Location, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// LocationHandler exposes the storage-location tree.
type LocationHandler struct {
	service locationService
}

// NewLocationHandler constructs a LocationHandler.
func NewLocationHandler(svc locationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// List godoc
// @Summary List locations
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.List(), nil)
}

// Tree godoc
// @Summary Location tree
// @Description Depth-first flattening of the location forest with each node's level.
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /locations/tree [get]
func (h *LocationHandler) Tree(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Tree(), nil)
}

// Get godoc
// @Summary Get location
// @Tags Locations
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/{id} [get]
func (h *LocationHandler) Get(c *gin.Context) {
	loc, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loc, nil)
}

// Create godoc
// @Summary Create location
// @Tags Locations
// @Accept json
// @Produce json
// @Param payload body service.LocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.LocationRequest
	if !bindJSON(c, &req, "invalid location payload") {
		return
	}

	loc, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, loc)
}

// Delete godoc
// @Summary Delete location
// @Description Refused while the location has children or assets.
// @Tags Locations
// @Param id path string true "Location ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /locations/{id} [delete]
func (h *LocationHandler) Delete(c *gin.Context) {
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
