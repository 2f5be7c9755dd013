package models

import "time"

// UserRole represents the available roles for the permission system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleManager    UserRole = "MANAGER"
	RoleStaff      UserRole = "STAFF"
	RoleAuditor    UserRole = "AUDITOR"
	RoleViewer     UserRole = "VIEWER"
)

// Roles lists every role in display order.
var Roles = []UserRole{RoleSuperAdmin, RoleManager, RoleStaff, RoleAuditor, RoleViewer}

// Valid reports whether r is one of the fixed roles.
func (r UserRole) Valid() bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// UserStatus tracks the registration lifecycle.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusPending  UserStatus = "pending"
	UserStatusRejected UserStatus = "rejected"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Role         UserRole   `db:"role" json:"role"`
	Avatar       *string    `db:"avatar" json:"avatar,omitempty"`
	Status       UserStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Status   *UserStatus
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
