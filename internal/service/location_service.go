package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type locationStore interface {
	Locations() []models.Location
	Location(id string) (models.Location, bool)
	AddLocation(ctx context.Context, location models.Location, actor string) (models.Location, error)
	DeleteLocation(ctx context.Context, id, actor string) error
}

// LocationRequest is the create payload for a location.
type LocationRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parent_id"`
}

// LocationService manages the storage-location tree.
type LocationService struct {
	store     locationStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs a LocationService.
func NewLocationService(store locationStore, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LocationService{store: store, validator: validate, logger: logger}
}

// List returns every location in creation order.
func (s *LocationService) List() []models.Location {
	return s.store.Locations()
}

// Get returns one location.
func (s *LocationService) Get(id string) (*models.Location, error) {
	loc, ok := s.store.Location(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
	}
	return &loc, nil
}

// Tree flattens the location forest depth first, annotating each node with its depth.
func (s *LocationService) Tree() []models.LocationNode {
	return FlattenLocations(s.store.Locations())
}

// Create adds a location under an optional parent.
func (s *LocationService) Create(ctx context.Context, claims *models.JWTClaims, req LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid location payload")
	}
	loc, err := s.store.AddLocation(ctx, models.Location{
		Name:     strings.TrimSpace(req.Name),
		ParentID: normalizeOptional(req.ParentID),
	}, claims.Actor())
	if err != nil {
		return nil, mapStoreError(err, "location not found")
	}
	return &loc, nil
}

// Delete removes a location without children or assets.
func (s *LocationService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	return mapStoreError(s.store.DeleteLocation(ctx, id, claims.Actor()), "location not found")
}

// FlattenLocations orders locations parent before children, preserving sibling order.
// Locations whose parent is unknown are not reachable from a root and are left out.
func FlattenLocations(locations []models.Location) []models.LocationNode {
	children := make(map[string][]models.Location)
	var roots []models.Location
	for _, loc := range locations {
		if loc.ParentID == nil {
			roots = append(roots, loc)
			continue
		}
		children[*loc.ParentID] = append(children[*loc.ParentID], loc)
	}

	out := make([]models.LocationNode, 0, len(locations))
	var walk func(nodes []models.Location, level int)
	walk = func(nodes []models.Location, level int) {
		for _, node := range nodes {
			out = append(out, models.LocationNode{Location: node, Level: level})
			walk(children[node.ID], level+1)
		}
	}
	walk(roots, 0)
	return out
}
