package permission

// Feature is a named application area used as the unit of access control.
type Feature string

const (
	FeatureDashboard Feature = "dashboard"
	FeatureAssets    Feature = "assets"
	FeatureLocations Feature = "locations"
	FeatureApprovals Feature = "approvals"
	FeatureAudit     Feature = "audit"
	FeatureSettings  Feature = "settings"
	FeatureUsers     Feature = "users"
)

// Features lists every feature key in display order.
var Features = []Feature{
	FeatureDashboard,
	FeatureAssets,
	FeatureLocations,
	FeatureApprovals,
	FeatureAudit,
	FeatureSettings,
	FeatureUsers,
}

// FeatureLabels are the human readable names shown by the permission editor.
var FeatureLabels = map[Feature]string{
	FeatureDashboard: "Dashboard",
	FeatureAssets:    "Assets Management",
	FeatureLocations: "Locations",
	FeatureApprovals: "Approvals",
	FeatureAudit:     "Audit & Opname",
	FeatureSettings:  "System Settings",
	FeatureUsers:     "User Management",
}

// Valid reports whether f is a known feature key.
func (f Feature) Valid() bool {
	_, ok := FeatureLabels[f]
	return ok
}

// Action is the kind of access being checked.
type Action string

const (
	ActionView Action = "view"
	ActionEdit Action = "edit"
)

// Field keys that can carry per-field overrides.
const (
	FieldPrice        = "price"
	FieldPurchaseDate = "purchaseDate"
	FieldUsefulLife   = "usefulLife"
)

// RestrictableFields lists the fields the editor offers overrides for, per feature.
var RestrictableFields = map[Feature][]string{
	FeatureAssets: {FieldPrice, FieldPurchaseDate, FieldUsefulLife},
}

// FieldPermission is a field-level override.
type FieldPermission struct {
	View bool `json:"view" yaml:"view"`
	Edit bool `json:"edit" yaml:"edit"`
}

// FeaturePermission is the permission record for one role and feature.
type FeaturePermission struct {
	View   bool                       `json:"view" yaml:"view"`
	Edit   bool                       `json:"edit" yaml:"edit"`
	Fields map[string]FieldPermission `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func (p FeaturePermission) clone() FeaturePermission {
	out := FeaturePermission{View: p.View, Edit: p.Edit}
	if len(p.Fields) > 0 {
		out.Fields = make(map[string]FieldPermission, len(p.Fields))
		for name, field := range p.Fields {
			out.Fields[name] = field
		}
	}
	return out
}

func (p FeaturePermission) allows(action Action) bool {
	switch action {
	case ActionView:
		return p.View
	case ActionEdit:
		return p.Edit
	default:
		return false
	}
}

func (p FieldPermission) allows(action Action) bool {
	switch action {
	case ActionView:
		return p.View
	case ActionEdit:
		return p.Edit
	default:
		return false
	}
}

// RoleConfig maps every feature to the role's permission record.
type RoleConfig map[Feature]FeaturePermission

func (c RoleConfig) clone() RoleConfig {
	out := make(RoleConfig, len(c))
	for feature, perm := range c {
		out[feature] = perm.clone()
	}
	return out
}
