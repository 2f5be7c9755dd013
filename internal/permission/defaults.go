package permission

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/proasset-api/internal/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultsOnce sync.Once
	defaults     map[models.UserRole]RoleConfig
	defaultsErr  error
)

// ParseDefaults decodes a YAML seed document keyed by role then feature.
func ParseDefaults(raw []byte) (map[models.UserRole]RoleConfig, error) {
	parsed := make(map[models.UserRole]RoleConfig)
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode permission defaults: %w", err)
	}
	for role, cfg := range parsed {
		if !role.Valid() {
			return nil, fmt.Errorf("permission defaults: unknown role %q", role)
		}
		for feature := range cfg {
			if !feature.Valid() {
				return nil, fmt.Errorf("permission defaults: role %s has unknown feature %q", role, feature)
			}
		}
	}
	return parsed, nil
}

// Defaults returns a copy of the seeded permission tables.
func Defaults() map[models.UserRole]RoleConfig {
	defaultsOnce.Do(func() {
		defaults, defaultsErr = ParseDefaults(defaultsYAML)
	})
	if defaultsErr != nil {
		panic(defaultsErr)
	}
	out := make(map[models.UserRole]RoleConfig, len(defaults))
	for role, cfg := range defaults {
		out[role] = cfg.clone()
	}
	return out
}
