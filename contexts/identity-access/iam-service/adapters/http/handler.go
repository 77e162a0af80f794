package httpadapter

import (
	"context"
	"log/slog"
	"regexp"

	"keystone/contexts/identity-access/iam-service/application"
	"keystone/contexts/identity-access/iam-service/domain/entities"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
	httptransport "keystone/contexts/identity-access/iam-service/transport/http"
)

const (
	maxModuleLength      = 100
	maxActionLength      = 50
	maxNameLength        = 100
	maxDescriptionLength = 255
)

var (
	modulePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	actionPattern = regexp.MustCompile(`^[a-z_]+$`)
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)
)

// Handler maps HTTP DTOs to application calls. Shape validation happens
// here; relational invariants stay in the services.
type Handler struct {
	Permissions application.PermissionService
	Policies    application.PolicyService
	Roles       application.RoleService
	Logger      *slog.Logger
}

// Permissions.

func (h Handler) CreatePermissionHandler(ctx context.Context, request httptransport.CreatePermissionRequest) (httptransport.PermissionDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http create permission received",
		"event", "iam_http_create_permission_received",
		"module", "identity-access/iam-service",
		"layer", "transport",
		"permission_module", request.Module,
		"permission_action", request.Action,
	)

	if err := validateModule(request.Module, true); err != nil {
		return httptransport.PermissionDTO{}, err
	}
	if err := validateAction(request.Action, true); err != nil {
		return httptransport.PermissionDTO{}, err
	}
	if err := validateDescription(request.Description); err != nil {
		return httptransport.PermissionDTO{}, err
	}

	created, err := h.Permissions.Create(ctx, ports.PermissionCreate{
		Module:      request.Module,
		Action:      request.Action,
		Description: request.Description,
		IsActive:    request.IsActive,
	})
	if err != nil {
		logger.Error("http create permission failed",
			"event", "iam_http_create_permission_failed",
			"module", "identity-access/iam-service",
			"layer", "transport",
			"permission_module", request.Module,
			"permission_action", request.Action,
			"error", err.Error(),
		)
		return httptransport.PermissionDTO{}, err
	}
	return permissionDTO(created), nil
}

func (h Handler) ListPermissionsHandler(ctx context.Context, filter ports.ListFilter) (httptransport.ListPermissionsResponse, error) {
	page, err := h.Permissions.List(ctx, filter)
	if err != nil {
		return httptransport.ListPermissionsResponse{}, err
	}

	items := make([]httptransport.PermissionSummaryDTO, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, httptransport.PermissionSummaryDTO{
			PermissionDTO: permissionDTO(item.Permission),
			PolicyCount:   item.PolicyCount,
		})
	}
	return httptransport.ListPermissionsResponse{
		Items:      items,
		Pagination: paginationDTO(page.Pagination),
	}, nil
}

func (h Handler) GetPermissionHandler(ctx context.Context, id int64) (httptransport.PermissionDetailDTO, error) {
	detail, err := h.Permissions.GetByID(ctx, id)
	if err != nil {
		return httptransport.PermissionDetailDTO{}, err
	}

	policies := make([]httptransport.PolicyRoleUsageDTO, 0, len(detail.Policies))
	for _, usage := range detail.Policies {
		policies = append(policies, httptransport.PolicyRoleUsageDTO{
			PolicyDTO: policyDTO(usage.Policy),
			RoleCount: usage.RoleCount,
		})
	}
	return httptransport.PermissionDetailDTO{
		PermissionDTO: permissionDTO(detail.Permission),
		Policies:      policies,
		PolicyCount:   detail.PolicyCount,
	}, nil
}

func (h Handler) UpdatePermissionHandler(ctx context.Context, id int64, request httptransport.UpdatePermissionRequest) (httptransport.PermissionDTO, error) {
	if request.Module != nil {
		if err := validateModule(*request.Module, true); err != nil {
			return httptransport.PermissionDTO{}, err
		}
	}
	if request.Action != nil {
		if err := validateAction(*request.Action, true); err != nil {
			return httptransport.PermissionDTO{}, err
		}
	}
	if request.Description != nil {
		if err := validateDescription(*request.Description); err != nil {
			return httptransport.PermissionDTO{}, err
		}
	}

	updated, err := h.Permissions.Update(ctx, id, ports.PermissionUpdate{
		Module:      request.Module,
		Action:      request.Action,
		Description: request.Description,
		IsActive:    request.IsActive,
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Error("http update permission failed",
			"event", "iam_http_update_permission_failed",
			"module", "identity-access/iam-service",
			"layer", "transport",
			"permission_id", id,
			"error", err.Error(),
		)
		return httptransport.PermissionDTO{}, err
	}
	return permissionDTO(updated), nil
}

func (h Handler) DeletePermissionHandler(ctx context.Context, id int64) error {
	return h.Permissions.Delete(ctx, id)
}

// Policies.

func (h Handler) CreatePolicyHandler(ctx context.Context, request httptransport.CreatePolicyRequest) (httptransport.PolicySummaryDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http create policy received",
		"event", "iam_http_create_policy_received",
		"module", "identity-access/iam-service",
		"layer", "transport",
		"policy_name", request.Name,
		"permission_count", len(request.PermissionIDs),
	)

	if err := validateName("name", request.Name, true); err != nil {
		return httptransport.PolicySummaryDTO{}, err
	}
	if err := validateDescription(request.Description); err != nil {
		return httptransport.PolicySummaryDTO{}, err
	}
	if err := validateIDSet("permission_ids", request.PermissionIDs); err != nil {
		return httptransport.PolicySummaryDTO{}, err
	}

	created, err := h.Policies.Create(ctx, ports.PolicyCreate{
		Name:           request.Name,
		TenantID:       request.TenantID,
		Description:    request.Description,
		IsActive:       request.IsActive,
		IsSystemPolicy: request.IsSystemPolicy,
		PermissionIDs:  request.PermissionIDs,
	})
	if err != nil {
		logger.Error("http create policy failed",
			"event", "iam_http_create_policy_failed",
			"module", "identity-access/iam-service",
			"layer", "transport",
			"policy_name", request.Name,
			"error", err.Error(),
		)
		return httptransport.PolicySummaryDTO{}, err
	}
	return policySummaryDTO(created), nil
}

func (h Handler) ListPoliciesHandler(ctx context.Context, filter ports.ListFilter) (httptransport.ListPoliciesResponse, error) {
	page, err := h.Policies.List(ctx, filter)
	if err != nil {
		return httptransport.ListPoliciesResponse{}, err
	}

	items := make([]httptransport.PolicySummaryDTO, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, policySummaryDTO(item))
	}
	return httptransport.ListPoliciesResponse{
		Items:      items,
		Pagination: paginationDTO(page.Pagination),
	}, nil
}

func (h Handler) GetPolicyHandler(ctx context.Context, id int64) (httptransport.PolicyDetailDTO, error) {
	detail, err := h.Policies.GetByID(ctx, id)
	if err != nil {
		return httptransport.PolicyDetailDTO{}, err
	}

	roles := make([]httptransport.RoleDTO, 0, len(detail.Roles))
	for _, role := range detail.Roles {
		roles = append(roles, roleDTO(role))
	}
	return httptransport.PolicyDetailDTO{
		PolicySummaryDTO: policySummaryDTO(detail.PolicySummary),
		Roles:            roles,
	}, nil
}

func (h Handler) UpdatePolicyHandler(ctx context.Context, id int64, request httptransport.UpdatePolicyRequest) (httptransport.PolicySummaryDTO, error) {
	if request.Name != nil {
		if err := validateName("name", *request.Name, true); err != nil {
			return httptransport.PolicySummaryDTO{}, err
		}
	}
	if request.Description != nil {
		if err := validateDescription(*request.Description); err != nil {
			return httptransport.PolicySummaryDTO{}, err
		}
	}
	if request.PermissionIDs != nil {
		if err := validateIDSet("permission_ids", *request.PermissionIDs); err != nil {
			return httptransport.PolicySummaryDTO{}, err
		}
	}

	updated, err := h.Policies.Update(ctx, id, ports.PolicyUpdate{
		Name:          request.Name,
		TenantID:      request.TenantID,
		Description:   request.Description,
		IsActive:      request.IsActive,
		PermissionIDs: request.PermissionIDs,
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Error("http update policy failed",
			"event", "iam_http_update_policy_failed",
			"module", "identity-access/iam-service",
			"layer", "transport",
			"policy_id", id,
			"error", err.Error(),
		)
		return httptransport.PolicySummaryDTO{}, err
	}
	return policySummaryDTO(updated), nil
}

func (h Handler) DeletePolicyHandler(ctx context.Context, id int64) error {
	return h.Policies.Delete(ctx, id)
}

// Roles.

func (h Handler) CreateRoleHandler(ctx context.Context, request httptransport.CreateRoleRequest) (httptransport.RoleSummaryDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http create role received",
		"event", "iam_http_create_role_received",
		"module", "identity-access/iam-service",
		"layer", "transport",
		"role_name", request.Name,
		"policy_count", len(request.PolicyIDs),
	)

	if err := validateName("name", request.Name, true); err != nil {
		return httptransport.RoleSummaryDTO{}, err
	}
	if err := validateDescription(request.Description); err != nil {
		return httptransport.RoleSummaryDTO{}, err
	}
	if err := validateIDSet("policy_ids", request.PolicyIDs); err != nil {
		return httptransport.RoleSummaryDTO{}, err
	}

	created, err := h.Roles.Create(ctx, ports.RoleCreate{
		Name:         request.Name,
		TenantID:     request.TenantID,
		Description:  request.Description,
		IsActive:     request.IsActive,
		IsSystemRole: request.IsSystemRole,
		PolicyIDs:    request.PolicyIDs,
	})
	if err != nil {
		logger.Error("http create role failed",
			"event", "iam_http_create_role_failed",
			"module", "identity-access/iam-service",
			"layer", "transport",
			"role_name", request.Name,
			"error", err.Error(),
		)
		return httptransport.RoleSummaryDTO{}, err
	}
	return roleSummaryDTO(created), nil
}

func (h Handler) ListRolesHandler(ctx context.Context, filter ports.ListFilter) (httptransport.ListRolesResponse, error) {
	page, err := h.Roles.List(ctx, filter)
	if err != nil {
		return httptransport.ListRolesResponse{}, err
	}

	items := make([]httptransport.RoleSummaryDTO, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, roleSummaryDTO(item))
	}
	return httptransport.ListRolesResponse{
		Items:      items,
		Pagination: paginationDTO(page.Pagination),
	}, nil
}

func (h Handler) GetRoleHandler(ctx context.Context, id int64) (httptransport.RoleSummaryDTO, error) {
	detail, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		return httptransport.RoleSummaryDTO{}, err
	}
	return roleSummaryDTO(detail), nil
}

func (h Handler) UpdateRoleHandler(ctx context.Context, id int64, request httptransport.UpdateRoleRequest) (httptransport.RoleSummaryDTO, error) {
	if request.Name != nil {
		if err := validateName("name", *request.Name, true); err != nil {
			return httptransport.RoleSummaryDTO{}, err
		}
	}
	if request.Description != nil {
		if err := validateDescription(*request.Description); err != nil {
			return httptransport.RoleSummaryDTO{}, err
		}
	}
	if request.PolicyIDs != nil {
		if err := validateIDSet("policy_ids", *request.PolicyIDs); err != nil {
			return httptransport.RoleSummaryDTO{}, err
		}
	}

	updated, err := h.Roles.Update(ctx, id, ports.RoleUpdate{
		Name:        request.Name,
		TenantID:    request.TenantID,
		Description: request.Description,
		IsActive:    request.IsActive,
		PolicyIDs:   request.PolicyIDs,
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Error("http update role failed",
			"event", "iam_http_update_role_failed",
			"module", "identity-access/iam-service",
			"layer", "transport",
			"role_id", id,
			"error", err.Error(),
		)
		return httptransport.RoleSummaryDTO{}, err
	}
	return roleSummaryDTO(updated), nil
}

func (h Handler) DeleteRoleHandler(ctx context.Context, id int64) error {
	return h.Roles.Delete(ctx, id)
}

// RolePermissionsHandler resolves the role's flattened permission set.
func (h Handler) RolePermissionsHandler(ctx context.Context, roleID int64) (httptransport.RolePermissionsResponse, error) {
	permissions, err := h.Roles.Permissions(ctx, roleID)
	if err != nil {
		return httptransport.RolePermissionsResponse{}, err
	}

	items := make([]httptransport.PermissionDTO, 0, len(permissions))
	for _, permission := range permissions {
		items = append(items, permissionDTO(permission))
	}
	return httptransport.RolePermissionsResponse{
		RoleID:      roleID,
		Permissions: items,
		Total:       len(items),
	}, nil
}

// CheckPermissionHandler answers whether the role grants (module, action).
func (h Handler) CheckPermissionHandler(ctx context.Context, roleID int64, module, action string) (httptransport.CheckPermissionResponse, error) {
	if err := validateModule(module, true); err != nil {
		return httptransport.CheckPermissionResponse{}, err
	}
	if err := validateAction(action, true); err != nil {
		return httptransport.CheckPermissionResponse{}, err
	}

	allowed, err := h.Roles.CheckPermission(ctx, roleID, module, action)
	if err != nil {
		return httptransport.CheckPermissionResponse{}, err
	}
	return httptransport.CheckPermissionResponse{
		RoleID:  roleID,
		Module:  module,
		Action:  action,
		Allowed: allowed,
	}, nil
}

// Shape validation.

func validateModule(value string, required bool) error {
	if value == "" {
		if required {
			return domainerrors.InvalidFieldf("module is required")
		}
		return nil
	}
	if len(value) > maxModuleLength {
		return domainerrors.InvalidFieldf("module exceeds %d characters", maxModuleLength)
	}
	if !modulePattern.MatchString(value) {
		return domainerrors.InvalidFieldf("module must match %s", modulePattern.String())
	}
	return nil
}

func validateAction(value string, required bool) error {
	if value == "" {
		if required {
			return domainerrors.InvalidFieldf("action is required")
		}
		return nil
	}
	if len(value) > maxActionLength {
		return domainerrors.InvalidFieldf("action exceeds %d characters", maxActionLength)
	}
	if !actionPattern.MatchString(value) {
		return domainerrors.InvalidFieldf("action must contain lowercase letters and underscores only")
	}
	return nil
}

func validateName(field, value string, required bool) error {
	if value == "" {
		if required {
			return domainerrors.InvalidFieldf("%s is required", field)
		}
		return nil
	}
	if len(value) > maxNameLength {
		return domainerrors.InvalidFieldf("%s exceeds %d characters", field, maxNameLength)
	}
	if !namePattern.MatchString(value) {
		return domainerrors.InvalidFieldf("%s contains invalid characters", field)
	}
	return nil
}

func validateDescription(value string) error {
	if len(value) > maxDescriptionLength {
		return domainerrors.InvalidFieldf("description exceeds %d characters", maxDescriptionLength)
	}
	return nil
}

func validateIDSet(field string, ids []int64) error {
	for _, id := range ids {
		if id < 1 {
			return domainerrors.InvalidFieldf("%s must contain positive ids", field)
		}
	}
	return nil
}

// DTO mapping.

func permissionDTO(item entities.Permission) httptransport.PermissionDTO {
	return httptransport.PermissionDTO{
		PermissionID: item.PermissionID,
		Module:       item.Module,
		Action:       item.Action,
		Description:  item.Description,
		IsActive:     item.IsActive,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func policyDTO(item entities.Policy) httptransport.PolicyDTO {
	return httptransport.PolicyDTO{
		PolicyID:       item.PolicyID,
		TenantID:       item.TenantID,
		Name:           item.Name,
		Description:    item.Description,
		IsActive:       item.IsActive,
		IsSystemPolicy: item.IsSystemPolicy,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

func policySummaryDTO(item ports.PolicySummary) httptransport.PolicySummaryDTO {
	permissions := make([]httptransport.PermissionDTO, 0, len(item.Permissions))
	for _, permission := range item.Permissions {
		permissions = append(permissions, permissionDTO(permission))
	}
	return httptransport.PolicySummaryDTO{
		PolicyDTO:       policyDTO(item.Policy),
		Permissions:     permissions,
		PermissionCount: item.PermissionCount,
		RoleCount:       item.RoleCount,
	}
}

func roleDTO(item entities.Role) httptransport.RoleDTO {
	return httptransport.RoleDTO{
		RoleID:       item.RoleID,
		TenantID:     item.TenantID,
		Name:         item.Name,
		Description:  item.Description,
		IsActive:     item.IsActive,
		IsSystemRole: item.IsSystemRole,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func roleSummaryDTO(item ports.RoleSummary) httptransport.RoleSummaryDTO {
	policies := make([]httptransport.PolicyWithPermissionsDTO, 0, len(item.Policies))
	for _, policy := range item.Policies {
		permissions := make([]httptransport.PermissionDTO, 0, len(policy.Permissions))
		for _, permission := range policy.Permissions {
			permissions = append(permissions, permissionDTO(permission))
		}
		policies = append(policies, httptransport.PolicyWithPermissionsDTO{
			PolicyDTO:   policyDTO(policy.Policy),
			Permissions: permissions,
		})
	}
	return httptransport.RoleSummaryDTO{
		RoleDTO:     roleDTO(item.Role),
		Policies:    policies,
		PolicyCount: item.PolicyCount,
		Assignments: httptransport.AssignmentCountsDTO{
			Admins:      item.Assignments.Admins,
			VendorUsers: item.Assignments.VendorUsers,
			Employees:   item.Assignments.Employees,
		},
	}
}

func paginationDTO(p ports.Pagination) httptransport.PaginationDTO {
	return httptransport.PaginationDTO{
		Page:  p.Page,
		Limit: p.Limit,
		Total: p.Total,
		Pages: p.Pages,
	}
}
