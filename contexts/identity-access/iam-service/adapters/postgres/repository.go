package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm-backed entity store. Composite writes run inside
// db.Transaction; link-id revalidation happens in the same transaction so a
// permission turning inactive mid-flight rolls the whole write back.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

var _ ports.Repository = (*Repository)(nil)

// Permissions.

func (r *Repository) CreatePermission(ctx context.Context, item entities.Permission) (entities.Permission, error) {
	row := permissionModelFromEntity(item)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Permission{}, domainerrors.ErrDuplicatePermission
		}
		return entities.Permission{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) PermissionByID(ctx context.Context, id int64) (entities.Permission, error) {
	var row permissionModel
	err := r.db.WithContext(ctx).
		Where("permission_id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Permission{}, domainerrors.ErrPermissionNotFound
		}
		return entities.Permission{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) PermissionByModuleAction(ctx context.Context, module, action string, excludeID int64) (entities.Permission, bool, error) {
	tx := r.db.WithContext(ctx).
		Where("module = ? AND action = ?", module, action)
	if excludeID > 0 {
		tx = tx.Where("permission_id <> ?", excludeID)
	}

	var row permissionModel
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Permission{}, false, nil
		}
		return entities.Permission{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PermissionDetail(ctx context.Context, id int64) (ports.PermissionDetail, error) {
	item, err := r.PermissionByID(ctx, id)
	if err != nil {
		return ports.PermissionDetail{}, err
	}

	var policyRows []policyModel
	if err := r.db.WithContext(ctx).
		Model(&policyModel{}).
		Joins("JOIN policy_permissions ON policy_permissions.policy_id = policies.policy_id").
		Where("policy_permissions.permission_id = ?", id).
		Order("policies.policy_id ASC").
		Find(&policyRows).
		Error; err != nil {
		return ports.PermissionDetail{}, err
	}

	policyIDs := make([]int64, 0, len(policyRows))
	for _, row := range policyRows {
		policyIDs = append(policyIDs, row.PolicyID)
	}
	roleCounts, err := r.groupCounts(ctx, &rolePolicyModel{}, "policy_id", policyIDs)
	if err != nil {
		return ports.PermissionDetail{}, err
	}

	policies := make([]ports.PolicyRoleUsage, 0, len(policyRows))
	for _, row := range policyRows {
		policies = append(policies, ports.PolicyRoleUsage{
			Policy:    row.toEntity(),
			RoleCount: roleCounts[row.PolicyID],
		})
	}
	return ports.PermissionDetail{
		Permission:  item,
		Policies:    policies,
		PolicyCount: int64(len(policies)),
	}, nil
}

func (r *Repository) ListPermissions(ctx context.Context, filter ports.ListFilter) ([]ports.PermissionSummary, int64, error) {
	base := r.db.WithContext(ctx).Model(&permissionModel{})
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		needle := "%" + filter.Search + "%"
		base = base.Where("module ILIKE ? OR action ILIKE ? OR description ILIKE ?", needle, needle, needle)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []permissionModel
	if err := base.Session(&gorm.Session{}).
		Order(orderClause(filter, permissionSortColumns)).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&rows).
		Error; err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PermissionID)
	}
	linkCounts, err := r.groupCounts(ctx, &policyPermissionModel{}, "permission_id", ids)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ports.PermissionSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.PermissionSummary{
			Permission:  row.toEntity(),
			PolicyCount: linkCounts[row.PermissionID],
		})
	}
	return items, total, nil
}

func (r *Repository) UpdatePermission(ctx context.Context, id int64, update ports.PermissionUpdate, now time.Time) (entities.Permission, error) {
	updates := map[string]any{"updated_at": now.UTC()}
	if update.Module != nil {
		updates["module"] = *update.Module
	}
	if update.Action != nil {
		updates["action"] = *update.Action
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.IsActive != nil {
		updates["is_active"] = *update.IsActive
	}

	result := r.db.WithContext(ctx).
		Model(&permissionModel{}).
		Where("permission_id = ?", id).
		Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return entities.Permission{}, domainerrors.ErrDuplicatePermission
		}
		return entities.Permission{}, result.Error
	}
	if result.RowsAffected == 0 {
		return entities.Permission{}, domainerrors.ErrPermissionNotFound
	}
	return r.PermissionByID(ctx, id)
}

func (r *Repository) DeletePermission(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("permission_id = ?", id).
		Delete(&permissionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPermissionNotFound
	}
	return nil
}

func (r *Repository) CountPolicyLinks(ctx context.Context, permissionID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&policyPermissionModel{}).
		Where("permission_id = ?", permissionID).
		Count(&count).
		Error
	return count, err
}

// Policies.

func (r *Repository) CreatePolicy(ctx context.Context, item entities.Policy, permissionIDs []int64) (ports.PolicySummary, error) {
	var out ports.PolicySummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActivePermissions(tx, permissionIDs); err != nil {
			return err
		}

		row := policyModelFromEntity(item)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicatePolicyName
			}
			return err
		}

		if len(permissionIDs) > 0 {
			links := make([]policyPermissionModel, 0, len(permissionIDs))
			for _, permissionID := range permissionIDs {
				links = append(links, policyPermissionModel{
					PolicyID:     row.PolicyID,
					PermissionID: permissionID,
				})
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		summary, err := policySummaryTx(tx, row.PolicyID)
		if err != nil {
			return err
		}
		out = summary
		return nil
	})
	if err != nil {
		return ports.PolicySummary{}, err
	}
	return out, nil
}

func (r *Repository) PolicyByID(ctx context.Context, id int64) (entities.Policy, error) {
	var row policyModel
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, domainerrors.ErrPolicyNotFound
		}
		return entities.Policy{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) PolicyByName(ctx context.Context, name string, tenantID *int64, excludeID int64) (entities.Policy, bool, error) {
	tx := r.db.WithContext(ctx).Where("name = ?", name)
	tx = scopeTenant(tx, tenantID)
	if excludeID > 0 {
		tx = tx.Where("policy_id <> ?", excludeID)
	}

	var row policyModel
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, false, nil
		}
		return entities.Policy{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PolicyDetail(ctx context.Context, id int64) (ports.PolicyDetail, error) {
	var out ports.PolicyDetail
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary, err := policySummaryTx(tx, id)
		if err != nil {
			return err
		}

		var roleRows []roleModel
		if err := tx.Model(&roleModel{}).
			Joins("JOIN role_policies ON role_policies.role_id = roles.role_id").
			Where("role_policies.policy_id = ?", id).
			Order("roles.role_id ASC").
			Find(&roleRows).
			Error; err != nil {
			return err
		}

		roles := make([]entities.Role, 0, len(roleRows))
		for _, row := range roleRows {
			roles = append(roles, row.toEntity())
		}
		out = ports.PolicyDetail{PolicySummary: summary, Roles: roles}
		return nil
	})
	if err != nil {
		return ports.PolicyDetail{}, err
	}
	return out, nil
}

func (r *Repository) ListPolicies(ctx context.Context, filter ports.ListFilter) ([]ports.PolicySummary, int64, error) {
	base := r.db.WithContext(ctx).Model(&policyModel{})
	if filter.TenantID != nil {
		base = base.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		needle := "%" + filter.Search + "%"
		base = base.Where("name ILIKE ? OR description ILIKE ?", needle, needle)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []policyModel
	if err := base.Session(&gorm.Session{}).
		Order(orderClause(filter, policySortColumns)).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&rows).
		Error; err != nil {
		return nil, 0, err
	}

	items := make([]ports.PolicySummary, 0, len(rows))
	for _, row := range rows {
		summary, err := policySummaryTx(r.db.WithContext(ctx), row.PolicyID)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, summary)
	}
	return items, total, nil
}

func (r *Repository) UpdatePolicy(ctx context.Context, id int64, update ports.PolicyUpdate, now time.Time) (ports.PolicySummary, error) {
	var out ports.PolicySummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row policyModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("policy_id = ?", id).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrPolicyNotFound
			}
			return err
		}

		if update.PermissionIDs != nil {
			if err := requireActivePermissions(tx, *update.PermissionIDs); err != nil {
				return err
			}
			if err := tx.Where("policy_id = ?", id).
				Delete(&policyPermissionModel{}).
				Error; err != nil {
				return err
			}
			if len(*update.PermissionIDs) > 0 {
				links := make([]policyPermissionModel, 0, len(*update.PermissionIDs))
				for _, permissionID := range *update.PermissionIDs {
					links = append(links, policyPermissionModel{
						PolicyID:     id,
						PermissionID: permissionID,
					})
				}
				if err := tx.Create(&links).Error; err != nil {
					return err
				}
			}
		}

		updates := map[string]any{"updated_at": now.UTC()}
		if update.Name != nil {
			updates["name"] = *update.Name
		}
		if update.TenantID != nil {
			updates["tenant_id"] = *update.TenantID
		}
		if update.Description != nil {
			updates["description"] = *update.Description
		}
		if update.IsActive != nil {
			updates["is_active"] = *update.IsActive
		}
		if err := tx.Model(&policyModel{}).
			Where("policy_id = ?", id).
			Updates(updates).
			Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicatePolicyName
			}
			return err
		}

		summary, err := policySummaryTx(tx, id)
		if err != nil {
			return err
		}
		out = summary
		return nil
	})
	if err != nil {
		return ports.PolicySummary{}, err
	}
	return out, nil
}

func (r *Repository) DeletePolicy(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("policy_id = ?", id).
			Delete(&policyPermissionModel{}).
			Error; err != nil {
			return err
		}
		result := tx.Where("policy_id = ?", id).Delete(&policyModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrPolicyNotFound
		}
		return nil
	})
}

func (r *Repository) CountRoleLinks(ctx context.Context, policyID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&rolePolicyModel{}).
		Where("policy_id = ?", policyID).
		Count(&count).
		Error
	return count, err
}

// Roles.

func (r *Repository) CreateRole(ctx context.Context, item entities.Role, policyIDs []int64) (ports.RoleSummary, error) {
	var out ports.RoleSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActivePolicies(tx, policyIDs); err != nil {
			return err
		}

		row := roleModelFromEntity(item)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateRoleName
			}
			return err
		}

		if len(policyIDs) > 0 {
			links := make([]rolePolicyModel, 0, len(policyIDs))
			for _, policyID := range policyIDs {
				links = append(links, rolePolicyModel{
					RoleID:   row.RoleID,
					PolicyID: policyID,
				})
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		summary, err := roleSummaryTx(tx, row.RoleID)
		if err != nil {
			return err
		}
		out = summary
		return nil
	})
	if err != nil {
		return ports.RoleSummary{}, err
	}
	return out, nil
}

func (r *Repository) RoleByID(ctx context.Context, id int64) (entities.Role, error) {
	var row roleModel
	err := r.db.WithContext(ctx).
		Where("role_id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Role{}, domainerrors.ErrRoleNotFound
		}
		return entities.Role{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) RoleByName(ctx context.Context, name string, tenantID *int64, excludeID int64) (entities.Role, bool, error) {
	tx := r.db.WithContext(ctx).Where("name = ?", name)
	tx = scopeTenant(tx, tenantID)
	if excludeID > 0 {
		tx = tx.Where("role_id <> ?", excludeID)
	}

	var row roleModel
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Role{}, false, nil
		}
		return entities.Role{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) RoleDetail(ctx context.Context, id int64) (ports.RoleSummary, error) {
	var out ports.RoleSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary, err := roleSummaryTx(tx, id)
		if err != nil {
			return err
		}
		out = summary
		return nil
	})
	if err != nil {
		return ports.RoleSummary{}, err
	}
	return out, nil
}

func (r *Repository) ListRoles(ctx context.Context, filter ports.ListFilter) ([]ports.RoleSummary, int64, error) {
	base := r.db.WithContext(ctx).Model(&roleModel{})
	if filter.TenantID != nil {
		base = base.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		needle := "%" + filter.Search + "%"
		base = base.Where("name ILIKE ? OR description ILIKE ?", needle, needle)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []roleModel
	if err := base.Session(&gorm.Session{}).
		Order(orderClause(filter, roleSortColumns)).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&rows).
		Error; err != nil {
		return nil, 0, err
	}

	items := make([]ports.RoleSummary, 0, len(rows))
	for _, row := range rows {
		summary, err := roleSummaryTx(r.db.WithContext(ctx), row.RoleID)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, summary)
	}
	return items, total, nil
}

func (r *Repository) UpdateRole(ctx context.Context, id int64, update ports.RoleUpdate, now time.Time) (ports.RoleSummary, error) {
	var out ports.RoleSummary
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row roleModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("role_id = ?", id).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRoleNotFound
			}
			return err
		}

		if update.PolicyIDs != nil {
			if err := requireActivePolicies(tx, *update.PolicyIDs); err != nil {
				return err
			}
			if err := tx.Where("role_id = ?", id).
				Delete(&rolePolicyModel{}).
				Error; err != nil {
				return err
			}
			if len(*update.PolicyIDs) > 0 {
				links := make([]rolePolicyModel, 0, len(*update.PolicyIDs))
				for _, policyID := range *update.PolicyIDs {
					links = append(links, rolePolicyModel{
						RoleID:   id,
						PolicyID: policyID,
					})
				}
				if err := tx.Create(&links).Error; err != nil {
					return err
				}
			}
		}

		updates := map[string]any{"updated_at": now.UTC()}
		if update.Name != nil {
			updates["name"] = *update.Name
		}
		if update.TenantID != nil {
			updates["tenant_id"] = *update.TenantID
		}
		if update.Description != nil {
			updates["description"] = *update.Description
		}
		if update.IsActive != nil {
			updates["is_active"] = *update.IsActive
		}
		if err := tx.Model(&roleModel{}).
			Where("role_id = ?", id).
			Updates(updates).
			Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateRoleName
			}
			return err
		}

		summary, err := roleSummaryTx(tx, id)
		if err != nil {
			return err
		}
		out = summary
		return nil
	})
	if err != nil {
		return ports.RoleSummary{}, err
	}
	return out, nil
}

func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).
			Delete(&rolePolicyModel{}).
			Error; err != nil {
			return err
		}
		result := tx.Where("role_id = ?", id).Delete(&roleModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrRoleNotFound
		}
		return nil
	})
}

func (r *Repository) CountRoleAssignments(ctx context.Context, roleID int64) (ports.RoleAssignmentCounts, error) {
	var counts ports.RoleAssignmentCounts
	if err := r.db.WithContext(ctx).
		Model(&adminModel{}).
		Where("role_id = ?", roleID).
		Count(&counts.Admins).
		Error; err != nil {
		return ports.RoleAssignmentCounts{}, err
	}
	if err := r.db.WithContext(ctx).
		Model(&vendorUserModel{}).
		Where("role_id = ?", roleID).
		Count(&counts.VendorUsers).
		Error; err != nil {
		return ports.RoleAssignmentCounts{}, err
	}
	if err := r.db.WithContext(ctx).
		Model(&employeeModel{}).
		Where("role_id = ?", roleID).
		Count(&counts.Employees).
		Error; err != nil {
		return ports.RoleAssignmentCounts{}, err
	}
	return counts, nil
}

func (r *Repository) RolePolicyPermissions(ctx context.Context, roleID int64) ([]entities.Permission, error) {
	var rows []permissionModel
	if err := r.db.WithContext(ctx).
		Model(&permissionModel{}).
		Select("permissions.*").
		Joins("JOIN policy_permissions ON policy_permissions.permission_id = permissions.permission_id").
		Joins("JOIN role_policies ON role_policies.policy_id = policy_permissions.policy_id").
		Where("role_policies.role_id = ?", roleID).
		Order("role_policies.policy_id ASC, policy_permissions.permission_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Permission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// Query helpers.

// groupCounts returns id -> row count over the given join model, keyed by
// column, restricted to ids. Missing ids simply have count zero.
func (r *Repository) groupCounts(ctx context.Context, model any, column string, ids []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	type pair struct {
		ID    int64
		Total int64
	}
	var pairs []pair
	if err := r.db.WithContext(ctx).
		Model(model).
		Select(column+" AS id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&pairs).
		Error; err != nil {
		return nil, err
	}
	for _, p := range pairs {
		counts[p.ID] = p.Total
	}
	return counts, nil
}

func requireActivePermissions(tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&permissionModel{}).
		Where("permission_id IN ? AND is_active = ?", ids, true).
		Count(&count).
		Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return domainerrors.ErrInactivePermissions
	}
	return nil
}

func requireActivePolicies(tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&policyModel{}).
		Where("policy_id IN ? AND is_active = ?", ids, true).
		Count(&count).
		Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return domainerrors.ErrInactivePolicies
	}
	return nil
}

func policySummaryTx(tx *gorm.DB, policyID int64) (ports.PolicySummary, error) {
	var row policyModel
	if err := tx.Where("policy_id = ?", policyID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PolicySummary{}, domainerrors.ErrPolicyNotFound
		}
		return ports.PolicySummary{}, err
	}

	var permissionRows []permissionModel
	if err := tx.Model(&permissionModel{}).
		Select("permissions.*").
		Joins("JOIN policy_permissions ON policy_permissions.permission_id = permissions.permission_id").
		Where("policy_permissions.policy_id = ?", policyID).
		Order("policy_permissions.permission_id ASC").
		Find(&permissionRows).
		Error; err != nil {
		return ports.PolicySummary{}, err
	}

	var roleCount int64
	if err := tx.Model(&rolePolicyModel{}).
		Where("policy_id = ?", policyID).
		Count(&roleCount).
		Error; err != nil {
		return ports.PolicySummary{}, err
	}

	permissions := make([]entities.Permission, 0, len(permissionRows))
	for _, permissionRow := range permissionRows {
		permissions = append(permissions, permissionRow.toEntity())
	}
	return ports.PolicySummary{
		Policy:          row.toEntity(),
		Permissions:     permissions,
		PermissionCount: int64(len(permissions)),
		RoleCount:       roleCount,
	}, nil
}

func roleSummaryTx(tx *gorm.DB, roleID int64) (ports.RoleSummary, error) {
	var row roleModel
	if err := tx.Where("role_id = ?", roleID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RoleSummary{}, domainerrors.ErrRoleNotFound
		}
		return ports.RoleSummary{}, err
	}

	var policyRows []policyModel
	if err := tx.Model(&policyModel{}).
		Select("policies.*").
		Joins("JOIN role_policies ON role_policies.policy_id = policies.policy_id").
		Where("role_policies.role_id = ?", roleID).
		Order("role_policies.policy_id ASC").
		Find(&policyRows).
		Error; err != nil {
		return ports.RoleSummary{}, err
	}

	policies := make([]ports.PolicyWithPermissions, 0, len(policyRows))
	for _, policyRow := range policyRows {
		var permissionRows []permissionModel
		if err := tx.Model(&permissionModel{}).
			Select("permissions.*").
			Joins("JOIN policy_permissions ON policy_permissions.permission_id = permissions.permission_id").
			Where("policy_permissions.policy_id = ?", policyRow.PolicyID).
			Order("policy_permissions.permission_id ASC").
			Find(&permissionRows).
			Error; err != nil {
			return ports.RoleSummary{}, err
		}

		permissions := make([]entities.Permission, 0, len(permissionRows))
		for _, permissionRow := range permissionRows {
			permissions = append(permissions, permissionRow.toEntity())
		}
		policies = append(policies, ports.PolicyWithPermissions{
			Policy:      policyRow.toEntity(),
			Permissions: permissions,
		})
	}

	var counts ports.RoleAssignmentCounts
	if err := tx.Model(&adminModel{}).Where("role_id = ?", roleID).Count(&counts.Admins).Error; err != nil {
		return ports.RoleSummary{}, err
	}
	if err := tx.Model(&vendorUserModel{}).Where("role_id = ?", roleID).Count(&counts.VendorUsers).Error; err != nil {
		return ports.RoleSummary{}, err
	}
	if err := tx.Model(&employeeModel{}).Where("role_id = ?", roleID).Count(&counts.Employees).Error; err != nil {
		return ports.RoleSummary{}, err
	}

	return ports.RoleSummary{
		Role:        row.toEntity(),
		Policies:    policies,
		PolicyCount: int64(len(policies)),
		Assignments: counts,
	}, nil
}

// scopeTenant pins the name-uniqueness scope: nil tenant is its own fixed
// scope, checked against NULL explicitly.
func scopeTenant(tx *gorm.DB, tenantID *int64) *gorm.DB {
	if tenantID == nil {
		return tx.Where("tenant_id IS NULL")
	}
	return tx.Where("tenant_id = ?", *tenantID)
}

var (
	permissionSortColumns = map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"module":     "module",
		"action":     "action",
	}
	policySortColumns = map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"name":       "name",
	}
	roleSortColumns = map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"name":       "name",
	}
)

// orderClause builds an ORDER BY from whitelisted columns only.
func orderClause(filter ports.ListFilter, columns map[string]string) string {
	column, ok := columns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == ports.SortOrderAsc {
		direction = "ASC"
	}
	return column + " " + direction
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
