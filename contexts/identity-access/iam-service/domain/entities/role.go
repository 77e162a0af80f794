package entities

import "time"

// Role is a named, tenant-scoped bundle of policies assignable to
// principals (admins, vendor users, employees).
type Role struct {
	RoleID       int64     `json:"role_id"`
	TenantID     *int64    `json:"tenant_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsSystemRole bool      `json:"is_system_role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
