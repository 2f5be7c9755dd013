package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proasset-api/internal/models"
)

// RolePermissionRepository persists runtime edits of the permission table.
type RolePermissionRepository struct {
	db *sqlx.DB
}

// NewRolePermissionRepository creates a new instance of RolePermissionRepository.
func NewRolePermissionRepository(db *sqlx.DB) *RolePermissionRepository {
	return &RolePermissionRepository{db: db}
}

// List returns every stored override.
func (r *RolePermissionRepository) List(ctx context.Context) ([]models.RolePermission, error) {
	const query = `SELECT role, feature, config, updated_at FROM role_permissions ORDER BY role, feature`
	var rows []models.RolePermission
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return rows, nil
}

// Upsert stores the record for a role and feature, replacing any previous value.
func (r *RolePermissionRepository) Upsert(ctx context.Context, perm *models.RolePermission) error {
	if perm.UpdatedAt.IsZero() {
		perm.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO role_permissions (role, feature, config, updated_at) VALUES (:role, :feature, :config, :updated_at)
ON CONFLICT (role, feature) DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, perm); err != nil {
		return fmt.Errorf("upsert role permission: %w", err)
	}
	return nil
}
