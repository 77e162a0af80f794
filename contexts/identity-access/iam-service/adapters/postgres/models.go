package postgresadapter

import (
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
)

type permissionModel struct {
	PermissionID int64     `gorm:"column:permission_id;primaryKey;autoIncrement"`
	Module       string    `gorm:"column:module"`
	Action       string    `gorm:"column:action"`
	Description  string    `gorm:"column:description"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (permissionModel) TableName() string { return "permissions" }

func (m permissionModel) toEntity() entities.Permission {
	return entities.Permission{
		PermissionID: m.PermissionID,
		Module:       m.Module,
		Action:       m.Action,
		Description:  m.Description,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func permissionModelFromEntity(item entities.Permission) permissionModel {
	return permissionModel{
		PermissionID: item.PermissionID,
		Module:       item.Module,
		Action:       item.Action,
		Description:  item.Description,
		IsActive:     item.IsActive,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

type policyModel struct {
	PolicyID       int64     `gorm:"column:policy_id;primaryKey;autoIncrement"`
	TenantID       *int64    `gorm:"column:tenant_id"`
	Name           string    `gorm:"column:name"`
	Description    string    `gorm:"column:description"`
	IsActive       bool      `gorm:"column:is_active"`
	IsSystemPolicy bool      `gorm:"column:is_system_policy"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (policyModel) TableName() string { return "policies" }

func (m policyModel) toEntity() entities.Policy {
	return entities.Policy{
		PolicyID:       m.PolicyID,
		TenantID:       m.TenantID,
		Name:           m.Name,
		Description:    m.Description,
		IsActive:       m.IsActive,
		IsSystemPolicy: m.IsSystemPolicy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func policyModelFromEntity(item entities.Policy) policyModel {
	return policyModel{
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

type roleModel struct {
	RoleID       int64     `gorm:"column:role_id;primaryKey;autoIncrement"`
	TenantID     *int64    `gorm:"column:tenant_id"`
	Name         string    `gorm:"column:name"`
	Description  string    `gorm:"column:description"`
	IsActive     bool      `gorm:"column:is_active"`
	IsSystemRole bool      `gorm:"column:is_system_role"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (roleModel) TableName() string { return "roles" }

func (m roleModel) toEntity() entities.Role {
	return entities.Role{
		RoleID:       m.RoleID,
		TenantID:     m.TenantID,
		Name:         m.Name,
		Description:  m.Description,
		IsActive:     m.IsActive,
		IsSystemRole: m.IsSystemRole,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func roleModelFromEntity(item entities.Role) roleModel {
	return roleModel{
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

type policyPermissionModel struct {
	PolicyPermissionID int64 `gorm:"column:policy_permission_id;primaryKey;autoIncrement"`
	PolicyID           int64 `gorm:"column:policy_id"`
	PermissionID       int64 `gorm:"column:permission_id"`
}

func (policyPermissionModel) TableName() string { return "policy_permissions" }

type rolePolicyModel struct {
	RolePolicyID int64 `gorm:"column:role_policy_id;primaryKey;autoIncrement"`
	RoleID       int64 `gorm:"column:role_id"`
	PolicyID     int64 `gorm:"column:policy_id"`
}

func (rolePolicyModel) TableName() string { return "role_policies" }

// Principal tables are read-only here. The IAM surface only counts
// assignments; principal lifecycle lives outside this service.

type adminModel struct {
	AdminID int64 `gorm:"column:admin_id;primaryKey"`
	RoleID  int64 `gorm:"column:role_id"`
}

func (adminModel) TableName() string { return "admins" }

type vendorUserModel struct {
	VendorUserID int64 `gorm:"column:vendor_user_id;primaryKey"`
	RoleID       int64 `gorm:"column:role_id"`
}

func (vendorUserModel) TableName() string { return "vendor_users" }

type employeeModel struct {
	EmployeeID int64 `gorm:"column:employee_id;primaryKey"`
	RoleID     int64 `gorm:"column:role_id"`
}

func (employeeModel) TableName() string { return "employees" }
