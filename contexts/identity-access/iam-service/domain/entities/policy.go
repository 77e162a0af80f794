package entities

import "time"

// Policy is a named, tenant-scoped bundle of permissions.
// (name, tenant_id) is unique; a nil tenant id is its own scope.
type Policy struct {
	PolicyID       int64     `json:"policy_id"`
	TenantID       *int64    `json:"tenant_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsSystemPolicy bool      `json:"is_system_policy"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
