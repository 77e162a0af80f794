package ports

import (
	"math"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
)

// Relation cardinality caps enforced on link-creating writes.
const (
	MaxPolicyPermissions = 100
	MaxRolePolicies      = 50
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"

	DefaultSortBy = "created_at"
)

type Clock interface {
	Now() time.Time
}

// ListFilter is the shared filter/sort/paginate contract for every list
// operation. Search is a case-insensitive substring match over the entity's
// text fields. IsActive is tri-state: nil means no filter.
type ListFilter struct {
	Page      int
	Limit     int
	TenantID  *int64
	IsActive  *bool
	Search    string
	SortBy    string
	SortOrder string
}

// Normalize fills defaults and clamps limit into [1, MaxLimit].
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	if f.SortOrder != SortOrderAsc {
		f.SortOrder = SortOrderDesc
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int
}

// NewPagination derives the page envelope from a total measured under the
// same predicate as the item fetch.
func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// Create inputs. Nil IsActive defaults to true.

type PermissionCreate struct {
	Module      string
	Action      string
	Description string
	IsActive    *bool
}

type PolicyCreate struct {
	Name           string
	TenantID       *int64
	Description    string
	IsActive       *bool
	IsSystemPolicy bool
	PermissionIDs  []int64
}

type RoleCreate struct {
	Name         string
	TenantID     *int64
	Description  string
	IsActive     *bool
	IsSystemRole bool
	PolicyIDs    []int64
}

// Update inputs. Each field is an explicit optional: nil leaves the stored
// value untouched. For the relation fields, present-and-empty clears the
// whole link set, nil keeps the existing links.

type PermissionUpdate struct {
	Module      *string
	Action      *string
	Description *string
	IsActive    *bool
}

type PolicyUpdate struct {
	Name          *string
	TenantID      *int64
	Description   *string
	IsActive      *bool
	PermissionIDs *[]int64
}

type RoleUpdate struct {
	Name        *string
	TenantID    *int64
	Description *string
	IsActive    *bool
	PolicyIDs   *[]int64
}

// Read-side expansions. Counts are store-side aggregates, never cached.

type PermissionSummary struct {
	entities.Permission
	PolicyCount int64
}

// PolicyRoleUsage is a policy linked to a permission plus how many roles
// consume that policy.
type PolicyRoleUsage struct {
	entities.Policy
	RoleCount int64
}

type PermissionDetail struct {
	entities.Permission
	Policies    []PolicyRoleUsage
	PolicyCount int64
}

type PolicySummary struct {
	entities.Policy
	Permissions     []entities.Permission
	PermissionCount int64
	RoleCount       int64
}

type PolicyDetail struct {
	PolicySummary
	Roles []entities.Role
}

type PolicyWithPermissions struct {
	entities.Policy
	Permissions []entities.Permission
}

// RoleAssignmentCounts sums principal references per collection.
type RoleAssignmentCounts struct {
	Admins      int64
	VendorUsers int64
	Employees   int64
}

func (c RoleAssignmentCounts) Total() int64 {
	return c.Admins + c.VendorUsers + c.Employees
}

type RoleSummary struct {
	entities.Role
	Policies    []PolicyWithPermissions
	PolicyCount int64
	Assignments RoleAssignmentCounts
}

// Page envelopes returned by the list operations.

type PermissionPage struct {
	Items      []PermissionSummary
	Pagination Pagination
}

type PolicyPage struct {
	Items      []PolicySummary
	Pagination Pagination
}

type RolePage struct {
	Items      []RoleSummary
	Pagination Pagination
}
