// Package permission evaluates role/feature/field access against a per-role table.
package permission

import (
	"errors"
	"sync"

	"github.com/noah-isme/proasset-api/internal/models"
)

var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrUnknownFeature = errors.New("unknown feature")
)

// Table holds the live permission configuration of every role.
type Table struct {
	mu    sync.RWMutex
	roles map[models.UserRole]RoleConfig
}

// NewTable builds a table from seed data. The seed is copied.
func NewTable(seed map[models.UserRole]RoleConfig) *Table {
	roles := make(map[models.UserRole]RoleConfig, len(seed))
	for role, cfg := range seed {
		roles[role] = cfg.clone()
	}
	return &Table{roles: roles}
}

// NewDefaultTable builds a table from the embedded defaults.
func NewDefaultTable() *Table {
	return NewTable(Defaults())
}

// HasPermission reports whether role may perform action on feature. When a field is given and the
// role's feature record overrides it, the override decides; otherwise the feature-level value does.
// Anything unknown or unconfigured is denied.
func (t *Table) HasPermission(role models.UserRole, feature Feature, action Action, field ...string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cfg, ok := t.roles[role]
	if !ok {
		return false
	}
	perm, ok := cfg[feature]
	if !ok {
		return false
	}
	if len(field) > 0 && field[0] != "" {
		if override, ok := perm.Fields[field[0]]; ok {
			return override.allows(action)
		}
	}
	return perm.allows(action)
}

// Update replaces the role's record for feature with cfg. Partial updates are not merged.
func (t *Table) Update(role models.UserRole, feature Feature, cfg FeaturePermission) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if !feature.Valid() {
		return ErrUnknownFeature
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	roleCfg, ok := t.roles[role]
	if !ok {
		roleCfg = make(RoleConfig, len(Features))
		t.roles[role] = roleCfg
	}
	roleCfg[feature] = cfg.clone()
	return nil
}

// Get returns the record for role and feature.
func (t *Table) Get(role models.UserRole, feature Feature) (FeaturePermission, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	perm, ok := t.roles[role][feature]
	if !ok {
		return FeaturePermission{}, false
	}
	return perm.clone(), true
}

// Role returns a copy of every feature record for role.
func (t *Table) Role(role models.UserRole) RoleConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cfg, ok := t.roles[role]
	if !ok {
		return RoleConfig{}
	}
	return cfg.clone()
}

// Snapshot returns a deep copy of the whole table.
func (t *Table) Snapshot() map[models.UserRole]RoleConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[models.UserRole]RoleConfig, len(t.roles))
	for role, cfg := range t.roles {
		out[role] = cfg.clone()
	}
	return out
}
