package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type assetStore interface {
	Assets() []models.Asset
	Asset(id string) (models.Asset, bool)
	Location(id string) (models.Location, bool)
	AddAsset(ctx context.Context, asset models.Asset, actor string) (models.Asset, error)
	UpdateAsset(ctx context.Context, asset models.Asset, actor string) (models.Asset, error)
	DeleteAsset(ctx context.Context, id, actor string) error
	RequestDelete(ctx context.Context, id string) (models.Asset, error)
	ApproveDelete(ctx context.Context, id, actor string) error
	RejectDelete(ctx context.Context, id string) (models.Asset, error)
	HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool
}

type assetCacheInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// AssetService manages assets and the deletion approval workflow.
type AssetService struct {
	store     assetStore
	cache     assetCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssetService constructs an AssetService. cache may be nil.
func NewAssetService(store assetStore, cache assetCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssetService{store: store, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns the assets visible in the main inventory, masked for the caller's role.
// Assets pending deletion are only included when requested.
func (s *AssetService) List(role models.UserRole, filter models.AssetFilter) []models.AssetView {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	now := s.now()

	views := make([]models.AssetView, 0)
	for _, asset := range s.store.Assets() {
		if asset.PendingDeletion() && !filter.IncludePending {
			continue
		}
		if filter.Category != "" && asset.Category != filter.Category {
			continue
		}
		if filter.LocationID != "" && asset.LocationID != filter.LocationID {
			continue
		}
		if filter.Status != nil && asset.Status != *filter.Status {
			continue
		}
		if search != "" && !matchesSearch(asset, search) {
			continue
		}
		views = append(views, s.view(role, asset, now))
	}
	return views
}

// PendingDeletion lists the assets awaiting approval.
func (s *AssetService) PendingDeletion(role models.UserRole) []models.AssetView {
	now := s.now()
	views := make([]models.AssetView, 0)
	for _, asset := range s.store.Assets() {
		if asset.PendingDeletion() {
			views = append(views, s.view(role, asset, now))
		}
	}
	return views
}

// Get returns a single masked asset.
func (s *AssetService) Get(role models.UserRole, id string) (*models.AssetView, error) {
	asset, ok := s.store.Asset(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
	}
	view := s.view(role, asset, s.now())
	return &view, nil
}

// Create validates and stores a new asset. Supplying a restricted field the role may not edit is
// rejected; omitted restricted fields take their zero defaults.
func (s *AssetService) Create(ctx context.Context, claims *models.JWTClaims, req models.AssetRequest) (*models.AssetView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid asset payload")
	}
	if err := s.checkLocation(req.LocationID); err != nil {
		return nil, err
	}

	asset := models.Asset{
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		LocationID:   req.LocationID,
		Status:       req.Status,
		Barcode:      normalizeOptional(req.Barcode),
		Image:        normalizeOptional(req.Image),
		PurchaseDate: s.now().UTC().Format(purchaseDateLayout),
		UsefulLife:   1,
	}

	for _, field := range restrictedFields(req) {
		editable := s.store.HasPermission(claims.Role, permission.FeatureAssets, permission.ActionEdit, field.name)
		if field.supplied && !editable {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to set "+field.name)
		}
		if !field.supplied && editable {
			return nil, appErrors.Validation(nil, field.name+" is required")
		}
	}
	if req.Price != nil {
		asset.Price = *req.Price
	}
	if req.PurchaseDate != nil {
		asset.PurchaseDate = *req.PurchaseDate
	}
	if req.UsefulLife != nil {
		asset.UsefulLife = *req.UsefulLife
	}

	stored, err := s.store.AddAsset(ctx, asset, claims.Actor())
	s.invalidate(ctx)
	if err != nil {
		return nil, mapStoreError(err, "asset not found")
	}
	view := s.view(claims.Role, stored, s.now())
	return &view, nil
}

// Update replaces an asset. Restricted fields the role may not edit keep their stored values and
// the deletion state is never taken from the payload.
func (s *AssetService) Update(ctx context.Context, claims *models.JWTClaims, id string, req models.AssetRequest) (*models.AssetView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid asset payload")
	}
	current, ok := s.store.Asset(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
	}
	if err := s.checkLocation(req.LocationID); err != nil {
		return nil, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	next.Category = strings.TrimSpace(req.Category)
	next.LocationID = req.LocationID
	next.Status = req.Status
	next.Barcode = normalizeOptional(req.Barcode)
	next.Image = normalizeOptional(req.Image)

	canEdit := func(field string) bool {
		return s.store.HasPermission(claims.Role, permission.FeatureAssets, permission.ActionEdit, field)
	}
	if req.Price != nil && canEdit(permission.FieldPrice) {
		next.Price = *req.Price
	}
	if req.PurchaseDate != nil && canEdit(permission.FieldPurchaseDate) {
		next.PurchaseDate = *req.PurchaseDate
	}
	if req.UsefulLife != nil && canEdit(permission.FieldUsefulLife) {
		next.UsefulLife = *req.UsefulLife
	}

	stored, err := s.store.UpdateAsset(ctx, next, claims.Actor())
	s.invalidate(ctx)
	if err != nil {
		return nil, mapStoreError(err, "asset not found")
	}
	view := s.view(claims.Role, stored, s.now())
	return &view, nil
}

// Delete removes an asset immediately.
func (s *AssetService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	err := s.store.DeleteAsset(ctx, id, claims.Actor())
	s.invalidate(ctx)
	return mapStoreError(err, "asset not found")
}

// RequestDelete marks an asset as pending deletion.
func (s *AssetService) RequestDelete(ctx context.Context, claims *models.JWTClaims, id string) (*models.AssetView, error) {
	asset, err := s.store.RequestDelete(ctx, id)
	s.invalidate(ctx)
	if err != nil {
		return nil, mapStoreError(err, "asset not found")
	}
	view := s.view(claims.Role, asset, s.now())
	return &view, nil
}

// ApproveDelete removes a pending asset.
func (s *AssetService) ApproveDelete(ctx context.Context, claims *models.JWTClaims, id string) error {
	err := s.store.ApproveDelete(ctx, id, claims.Actor())
	s.invalidate(ctx)
	return mapStoreError(err, "asset not found")
}

// RejectDelete restores a pending asset.
func (s *AssetService) RejectDelete(ctx context.Context, claims *models.JWTClaims, id string) (*models.AssetView, error) {
	asset, err := s.store.RejectDelete(ctx, id)
	s.invalidate(ctx)
	if err != nil {
		return nil, mapStoreError(err, "asset not found")
	}
	view := s.view(claims.Role, asset, s.now())
	return &view, nil
}

// view masks the fields role may not view and attaches the valuation when the price is visible.
func (s *AssetService) view(role models.UserRole, asset models.Asset, now time.Time) models.AssetView {
	view := models.AssetView{
		ID:                  asset.ID,
		Name:                asset.Name,
		Category:            asset.Category,
		LocationID:          asset.LocationID,
		Status:              asset.Status,
		Barcode:             asset.Barcode,
		Image:               asset.Image,
		DeletionStatus:      asset.DeletionStatus,
		DeletionRequestDate: asset.DeletionRequestDate,
		CreatedAt:           asset.CreatedAt,
	}
	canView := func(field string) bool {
		return s.store.HasPermission(role, permission.FeatureAssets, permission.ActionView, field)
	}
	if canView(permission.FieldPrice) {
		price := asset.Price
		view.Price = &price
		valuation := Depreciate(asset.Price, asset.PurchaseDate, asset.UsefulLife, now)
		view.Valuation = &valuation
	}
	if canView(permission.FieldPurchaseDate) {
		date := asset.PurchaseDate
		view.PurchaseDate = &date
	}
	if canView(permission.FieldUsefulLife) {
		life := asset.UsefulLife
		view.UsefulLife = &life
	}
	return view
}

func (s *AssetService) checkLocation(id string) error {
	if _, ok := s.store.Location(id); !ok {
		return appErrors.Validation(nil, "location does not exist")
	}
	return nil
}

func (s *AssetService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

type restrictedField struct {
	name     string
	supplied bool
}

func restrictedFields(req models.AssetRequest) []restrictedField {
	return []restrictedField{
		{name: permission.FieldPrice, supplied: req.Price != nil},
		{name: permission.FieldPurchaseDate, supplied: req.PurchaseDate != nil},
		{name: permission.FieldUsefulLife, supplied: req.UsefulLife != nil},
	}
}

func matchesSearch(asset models.Asset, needle string) bool {
	if strings.Contains(strings.ToLower(asset.Name), needle) {
		return true
	}
	return asset.Barcode != nil && strings.Contains(strings.ToLower(*asset.Barcode), needle)
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
