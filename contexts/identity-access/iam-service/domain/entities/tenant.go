package entities

import "time"

// Tenant is the owning scope for tenant-bound policies and roles.
// A nil tenant reference on Policy/Role means the global/system scope.
type Tenant struct {
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
