package entities

import "time"

// Permission is an atomic capability identified by (module, action).
// The pair is unique across all permissions, active or not.
type Permission struct {
	PermissionID int64     `json:"permission_id"`
	Module       string    `json:"module"`
	Action       string    `json:"action"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
