package application

import (
	"context"
	"log/slog"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

// RoleService mirrors PolicyService one level up (policy ids instead of
// permission ids, cap 50 instead of 100) and additionally answers the
// flattened-permission resolution queries.
type RoleService struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s RoleService) Create(ctx context.Context, input ports.RoleCreate) (ports.RoleSummary, error) {
	if _, exists, err := s.Repo.RoleByName(ctx, input.Name, input.TenantID, 0); err != nil {
		return ports.RoleSummary{}, domainerrors.Store("create role", err)
	} else if exists {
		return ports.RoleSummary{}, domainerrors.ErrDuplicateRoleName
	}

	policyIDs := dedupeIDs(input.PolicyIDs)
	if len(policyIDs) > ports.MaxRolePolicies {
		return ports.RoleSummary{}, domainerrors.ErrPolicyCapExceeded
	}

	now := s.now()
	created, err := s.Repo.CreateRole(ctx, entities.Role{
		TenantID:     input.TenantID,
		Name:         input.Name,
		Description:  input.Description,
		IsActive:     boolOrDefault(input.IsActive, true),
		IsSystemRole: input.IsSystemRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, policyIDs)
	if err != nil {
		return ports.RoleSummary{}, domainerrors.Store("create role", err)
	}

	ResolveLogger(s.Logger).Debug("role created",
		"event", "iam_role_created",
		"module", "identity-access/iam-service",
		"layer", "application",
		"role_id", created.RoleID,
		"role_name", created.Name,
		"policy_count", created.PolicyCount,
	)
	return created, nil
}

func (s RoleService) List(ctx context.Context, filter ports.ListFilter) (ports.RolePage, error) {
	filter = filter.Normalize()
	items, total, err := s.Repo.ListRoles(ctx, filter)
	if err != nil {
		return ports.RolePage{}, domainerrors.Store("list roles", err)
	}
	return ports.RolePage{
		Items:      items,
		Pagination: ports.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s RoleService) GetByID(ctx context.Context, id int64) (ports.RoleSummary, error) {
	detail, err := s.Repo.RoleDetail(ctx, id)
	if err != nil {
		return ports.RoleSummary{}, domainerrors.Store("get role", err)
	}
	return detail, nil
}

func (s RoleService) Update(ctx context.Context, id int64, update ports.RoleUpdate) (ports.RoleSummary, error) {
	existing, err := s.Repo.RoleByID(ctx, id)
	if err != nil {
		return ports.RoleSummary{}, domainerrors.Store("update role", err)
	}

	if update.Name != nil {
		scope := existing.TenantID
		if update.TenantID != nil {
			scope = update.TenantID
		}
		if _, exists, err := s.Repo.RoleByName(ctx, *update.Name, scope, id); err != nil {
			return ports.RoleSummary{}, domainerrors.Store("update role", err)
		} else if exists {
			return ports.RoleSummary{}, domainerrors.ErrDuplicateRoleName
		}
	}

	if update.PolicyIDs != nil {
		deduped := dedupeIDs(*update.PolicyIDs)
		if len(deduped) > ports.MaxRolePolicies {
			return ports.RoleSummary{}, domainerrors.ErrPolicyCapExceeded
		}
		update.PolicyIDs = &deduped
	}

	updated, err := s.Repo.UpdateRole(ctx, id, update, s.now())
	if err != nil {
		return ports.RoleSummary{}, domainerrors.Store("update role", err)
	}
	return updated, nil
}

func (s RoleService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Repo.RoleByID(ctx, id)
	if err != nil {
		return domainerrors.Store("delete role", err)
	}
	assignments, err := s.Repo.CountRoleAssignments(ctx, id)
	if err != nil {
		return domainerrors.Store("delete role", err)
	}
	if assignments.Total() > 0 {
		return domainerrors.ErrRoleInUse
	}
	if existing.IsSystemRole {
		return domainerrors.ErrSystemRole
	}
	if err := s.Repo.DeleteRole(ctx, id); err != nil {
		return domainerrors.Store("delete role", err)
	}

	ResolveLogger(s.Logger).Debug("role deleted",
		"event", "iam_role_deleted",
		"module", "identity-access/iam-service",
		"layer", "application",
		"role_id", id,
	)
	return nil
}

// Permissions flattens the role's policies into a deduplicated permission
// set. First occurrence wins; field values are not merged.
func (s RoleService) Permissions(ctx context.Context, roleID int64) ([]entities.Permission, error) {
	if _, err := s.Repo.RoleByID(ctx, roleID); err != nil {
		return nil, domainerrors.Store("resolve role permissions", err)
	}
	linked, err := s.Repo.RolePolicyPermissions(ctx, roleID)
	if err != nil {
		return nil, domainerrors.Store("resolve role permissions", err)
	}

	seen := make(map[int64]struct{}, len(linked))
	out := make([]entities.Permission, 0, len(linked))
	for _, permission := range linked {
		if _, ok := seen[permission.PermissionID]; ok {
			continue
		}
		seen[permission.PermissionID] = struct{}{}
		out = append(out, permission)
	}
	return out, nil
}

// CheckPermission reports whether the role resolves to an active permission
// matching (module, action).
func (s RoleService) CheckPermission(ctx context.Context, roleID int64, module, action string) (bool, error) {
	permissions, err := s.Permissions(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, permission := range permissions {
		if permission.Module == module && permission.Action == action && permission.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (s RoleService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
