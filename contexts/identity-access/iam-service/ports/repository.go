package ports

import (
	"context"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
)

// Repository is the entity-store port shared by adapters and services.
//
// Composite writes (create-with-links, update-with-link-replacement) must be
// atomic: a failure partway rolls back every row touched. Link-id validation
// (referenced ids exist and are active) happens inside that same transaction.
// Lookup methods return the domain not-found sentinels; adapters wrap any
// other failure unclassified for the service layer to tag.
type Repository interface {
	// Permissions.
	CreatePermission(ctx context.Context, item entities.Permission) (entities.Permission, error)
	PermissionByID(ctx context.Context, id int64) (entities.Permission, error)
	// PermissionByModuleAction reports whether a permission with the pair
	// exists, ignoring is_active. excludeID > 0 skips that row (update path).
	PermissionByModuleAction(ctx context.Context, module, action string, excludeID int64) (entities.Permission, bool, error)
	PermissionDetail(ctx context.Context, id int64) (PermissionDetail, error)
	ListPermissions(ctx context.Context, filter ListFilter) ([]PermissionSummary, int64, error)
	UpdatePermission(ctx context.Context, id int64, update PermissionUpdate, now time.Time) (entities.Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	CountPolicyLinks(ctx context.Context, permissionID int64) (int64, error)

	// Policies.
	CreatePolicy(ctx context.Context, item entities.Policy, permissionIDs []int64) (PolicySummary, error)
	PolicyByID(ctx context.Context, id int64) (entities.Policy, error)
	PolicyByName(ctx context.Context, name string, tenantID *int64, excludeID int64) (entities.Policy, bool, error)
	PolicyDetail(ctx context.Context, id int64) (PolicyDetail, error)
	ListPolicies(ctx context.Context, filter ListFilter) ([]PolicySummary, int64, error)
	UpdatePolicy(ctx context.Context, id int64, update PolicyUpdate, now time.Time) (PolicySummary, error)
	DeletePolicy(ctx context.Context, id int64) error
	CountRoleLinks(ctx context.Context, policyID int64) (int64, error)

	// Roles.
	CreateRole(ctx context.Context, item entities.Role, policyIDs []int64) (RoleSummary, error)
	RoleByID(ctx context.Context, id int64) (entities.Role, error)
	RoleByName(ctx context.Context, name string, tenantID *int64, excludeID int64) (entities.Role, bool, error)
	RoleDetail(ctx context.Context, id int64) (RoleSummary, error)
	ListRoles(ctx context.Context, filter ListFilter) ([]RoleSummary, int64, error)
	UpdateRole(ctx context.Context, id int64, update RoleUpdate, now time.Time) (RoleSummary, error)
	DeleteRole(ctx context.Context, id int64) error
	CountRoleAssignments(ctx context.Context, roleID int64) (RoleAssignmentCounts, error)

	// Resolution: permissions reachable through the role's policies, in
	// role-policy then policy-permission link order, duplicates included.
	RolePolicyPermissions(ctx context.Context, roleID int64) ([]entities.Permission, error)
}
