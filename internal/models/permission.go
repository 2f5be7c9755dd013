package models

import "time"

// RolePermission is a persisted override of one role/feature permission record.
type RolePermission struct {
	Role      UserRole  `db:"role" json:"role"`
	Feature   string    `db:"feature" json:"feature"`
	Config    []byte    `db:"config" json:"config"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
