package httptransport

import "time"

// CreatePermissionRequest is the request body for permission creation.
type CreatePermissionRequest struct {
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// UpdatePermissionRequest carries partial permission updates. Absent fields
// stay untouched.
type UpdatePermissionRequest struct {
	Module      *string `json:"module,omitempty"`
	Action      *string `json:"action,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// PermissionDTO describes one permission row.
type PermissionDTO struct {
	PermissionID int64     `json:"permission_id"`
	Module       string    `json:"module"`
	Action       string    `json:"action"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PermissionSummaryDTO struct {
	PermissionDTO
	PolicyCount int64 `json:"policy_count"`
}

// PolicyRoleUsageDTO is a policy plus how many roles reference it.
type PolicyRoleUsageDTO struct {
	PolicyDTO
	RoleCount int64 `json:"role_count"`
}

type PermissionDetailDTO struct {
	PermissionDTO
	Policies    []PolicyRoleUsageDTO `json:"policies"`
	PolicyCount int64                `json:"policy_count"`
}

type ListPermissionsResponse struct {
	Items      []PermissionSummaryDTO `json:"items"`
	Pagination PaginationDTO          `json:"pagination"`
}

type CreatePolicyRequest struct {
	TenantID       *int64  `json:"tenant_id,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	IsSystemPolicy bool    `json:"is_system_policy,omitempty"`
	PermissionIDs  []int64 `json:"permission_ids,omitempty"`
}

// UpdatePolicyRequest carries partial policy updates. A present
// permission_ids set replaces the whole link set; absent leaves it alone.
type UpdatePolicyRequest struct {
	TenantID      *int64   `json:"tenant_id,omitempty"`
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
	PermissionIDs *[]int64 `json:"permission_ids,omitempty"`
}

type PolicyDTO struct {
	PolicyID       int64     `json:"policy_id"`
	TenantID       *int64    `json:"tenant_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsSystemPolicy bool      `json:"is_system_policy"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type PolicySummaryDTO struct {
	PolicyDTO
	Permissions     []PermissionDTO `json:"permissions"`
	PermissionCount int64           `json:"permission_count"`
	RoleCount       int64           `json:"role_count"`
}

type PolicyDetailDTO struct {
	PolicySummaryDTO
	Roles []RoleDTO `json:"roles"`
}

type ListPoliciesResponse struct {
	Items      []PolicySummaryDTO `json:"items"`
	Pagination PaginationDTO      `json:"pagination"`
}

type CreateRoleRequest struct {
	TenantID     *int64  `json:"tenant_id,omitempty"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
	IsSystemRole bool    `json:"is_system_role,omitempty"`
	PolicyIDs    []int64 `json:"policy_ids,omitempty"`
}

type UpdateRoleRequest struct {
	TenantID    *int64   `json:"tenant_id,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	PolicyIDs   *[]int64 `json:"policy_ids,omitempty"`
}

type RoleDTO struct {
	RoleID       int64     `json:"role_id"`
	TenantID     *int64    `json:"tenant_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsSystemRole bool      `json:"is_system_role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PolicyWithPermissionsDTO struct {
	PolicyDTO
	Permissions []PermissionDTO `json:"permissions"`
}

type AssignmentCountsDTO struct {
	Admins      int64 `json:"admins"`
	VendorUsers int64 `json:"vendor_users"`
	Employees   int64 `json:"employees"`
}

type RoleSummaryDTO struct {
	RoleDTO
	Policies    []PolicyWithPermissionsDTO `json:"policies"`
	PolicyCount int64                      `json:"policy_count"`
	Assignments AssignmentCountsDTO        `json:"assignments"`
}

type ListRolesResponse struct {
	Items      []RoleSummaryDTO `json:"items"`
	Pagination PaginationDTO    `json:"pagination"`
}

// RolePermissionsResponse is the flattened, deduplicated permission set a
// role resolves to.
type RolePermissionsResponse struct {
	RoleID      int64           `json:"role_id"`
	Permissions []PermissionDTO `json:"permissions"`
	Total       int             `json:"total"`
}

type CheckPermissionResponse struct {
	RoleID  int64  `json:"role_id"`
	Module  string `json:"module"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

// PaginationDTO is the shared list envelope metadata.
type PaginationDTO struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
