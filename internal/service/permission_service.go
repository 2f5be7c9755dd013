package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type permissionStore interface {
	RolePermissions(role models.UserRole) permission.RoleConfig
	PermissionSnapshot() map[models.UserRole]permission.RoleConfig
	UpdateRolePermission(ctx context.Context, role models.UserRole, feature permission.Feature, cfg permission.FeaturePermission, actor string) error
}

// UpdatePermissionRequest replaces one role/feature record.
type UpdatePermissionRequest struct {
	View   *bool                                 `json:"view" validate:"required"`
	Edit   *bool                                 `json:"edit" validate:"required"`
	Fields map[string]permission.FieldPermission `json:"fields"`
}

// FeatureDescriptor describes one feature for the permission editor.
type FeatureDescriptor struct {
	Key    permission.Feature `json:"key"`
	Label  string             `json:"label"`
	Fields []string           `json:"fields,omitempty"`
}

// PermissionCatalog lists the roles and features the editor can configure.
type PermissionCatalog struct {
	Roles    []models.UserRole   `json:"roles"`
	Features []FeatureDescriptor `json:"features"`
}

// PermissionService exposes the role permission table.
type PermissionService struct {
	store     permissionStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(store permissionStore, validate *validator.Validate, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PermissionService{store: store, validator: validate, logger: logger}
}

// Catalog returns the editor metadata.
func (s *PermissionService) Catalog() PermissionCatalog {
	features := make([]FeatureDescriptor, 0, len(permission.Features))
	for _, feature := range permission.Features {
		features = append(features, FeatureDescriptor{
			Key:    feature,
			Label:  permission.FeatureLabels[feature],
			Fields: permission.RestrictableFields[feature],
		})
	}
	return PermissionCatalog{Roles: models.Roles, Features: features}
}

// Snapshot returns the permissions of every role.
func (s *PermissionService) Snapshot() map[models.UserRole]permission.RoleConfig {
	return s.store.PermissionSnapshot()
}

// ForRole returns the permissions of one role.
func (s *PermissionService) ForRole(role models.UserRole) (permission.RoleConfig, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
	}
	return s.store.RolePermissions(role), nil
}

// Update replaces the record for role and feature. Only SUPER_ADMIN may change permissions.
func (s *PermissionService) Update(ctx context.Context, claims *models.JWTClaims, role models.UserRole, feature permission.Feature, req UpdatePermissionRequest) (permission.FeaturePermission, error) {
	if claims == nil || claims.Role != models.RoleSuperAdmin {
		return permission.FeaturePermission{}, appErrors.Clone(appErrors.ErrForbidden, "only SUPER_ADMIN can change permissions")
	}
	if err := s.validator.Struct(req); err != nil {
		return permission.FeaturePermission{}, appErrors.Validation(err, "view and edit are required")
	}
	if err := validateFields(feature, req.Fields); err != nil {
		return permission.FeaturePermission{}, err
	}

	cfg := permission.FeaturePermission{View: *req.View, Edit: *req.Edit, Fields: req.Fields}
	if err := s.store.UpdateRolePermission(ctx, role, feature, cfg, claims.Actor()); err != nil {
		return permission.FeaturePermission{}, mapStoreError(err, "permission not found")
	}
	s.logger.Info("role permission updated",
		zap.String("role", string(role)),
		zap.String("feature", string(feature)),
		zap.Bool("view", cfg.View),
		zap.Bool("edit", cfg.Edit),
	)
	return cfg, nil
}

func validateFields(feature permission.Feature, fields map[string]permission.FieldPermission) error {
	if len(fields) == 0 {
		return nil
	}
	allowed := make(map[string]struct{})
	for _, name := range permission.RestrictableFields[feature] {
		allowed[name] = struct{}{}
	}
	for name := range fields {
		if _, ok := allowed[name]; !ok {
			return appErrors.Validation(nil, "field "+name+" cannot be restricted for "+string(feature))
		}
	}
	return nil
}
