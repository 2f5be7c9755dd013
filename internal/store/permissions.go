package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
)

// HasPermission evaluates the live permission table.
func (s *Store) HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool {
	s.mu.RLock()
	table := s.perms
	s.mu.RUnlock()
	return table.HasPermission(role, feature, action, field...)
}

// RolePermissions returns the permission records for one role.
func (s *Store) RolePermissions(role models.UserRole) permission.RoleConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms.Role(role)
}

// PermissionSnapshot returns a deep copy of every role's permissions.
func (s *Store) PermissionSnapshot() map[models.UserRole]permission.RoleConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms.Snapshot()
}

// UpdateRolePermission replaces one role/feature record and persists it.
func (s *Store) UpdateRolePermission(ctx context.Context, role models.UserRole, feature permission.Feature, cfg permission.FeaturePermission, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.Update(role, feature, cfg); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode permission: %w", err)
	}
	row := models.RolePermission{Role: role, Feature: string(feature), Config: raw, UpdatedAt: s.now().UTC()}
	err = s.persist("update role permission", s.repos.Permissions.Upsert(ctx, &row))
	s.appendLog(ctx, models.ActionUpdate, "Permissions", fmt.Sprintf("Updated %s permissions for %s", feature, role), actor)
	return err
}
