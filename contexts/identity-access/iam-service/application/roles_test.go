package application

import (
	"context"
	"errors"
	"testing"

	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

func TestCreateRoleEnforcesPolicyCap(t *testing.T) {
	_, _, _, roles := newServices()

	ids := make([]int64, 0, ports.MaxRolePolicies+1)
	for i := int64(1); i <= ports.MaxRolePolicies+1; i++ {
		ids = append(ids, i)
	}

	_, err := roles.Create(context.Background(), ports.RoleCreate{
		Name:      "oversized",
		PolicyIDs: ids,
	})
	if !errors.Is(err, domainerrors.ErrPolicyCapExceeded) {
		t.Fatalf("expected policy cap error, got %v", err)
	}
}

func TestRoleNameUniquePerTenantScope(t *testing.T) {
	store, _, _, roles := newServices()
	tenant := store.AddTenant("acme")

	if _, err := roles.Create(context.Background(), ports.RoleCreate{Name: "manager"}); err != nil {
		t.Fatalf("global create failed: %v", err)
	}
	if _, err := roles.Create(context.Background(), ports.RoleCreate{
		Name:     "manager",
		TenantID: &tenant.TenantID,
	}); err != nil {
		t.Fatalf("tenant-scoped create failed: %v", err)
	}

	_, err := roles.Create(context.Background(), ports.RoleCreate{Name: "manager"})
	if !errors.Is(err, domainerrors.ErrDuplicateRoleName) {
		t.Fatalf("expected duplicate role name, got %v", err)
	}
}

func TestCreateRoleRejectsInactivePolicies(t *testing.T) {
	_, _, policies, roles := newServices()

	inactive := false
	policy, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:     "dormant",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	_, err = roles.Create(context.Background(), ports.RoleCreate{
		Name:      "operator",
		PolicyIDs: []int64{policy.PolicyID},
	})
	if !errors.Is(err, domainerrors.ErrInactivePolicies) {
		t.Fatalf("expected inactive policies error, got %v", err)
	}
}

func TestDeleteRoleGuards(t *testing.T) {
	store, _, _, roles := newServices()

	role, err := roles.Create(context.Background(), ports.RoleCreate{Name: "support"})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}

	store.AssignAdmin(role.RoleID)
	store.AssignEmployee(role.RoleID)

	err = roles.Delete(context.Background(), role.RoleID)
	if !errors.Is(err, domainerrors.ErrRoleInUse) {
		t.Fatalf("expected role-in-use error, got %v", err)
	}

	store.ClearAssignments(role.RoleID)
	if err := roles.Delete(context.Background(), role.RoleID); err != nil {
		t.Fatalf("delete after unassign failed: %v", err)
	}

	system, err := roles.Create(context.Background(), ports.RoleCreate{
		Name:         "platform-admin",
		IsSystemRole: true,
	})
	if err != nil {
		t.Fatalf("create system role failed: %v", err)
	}
	err = roles.Delete(context.Background(), system.RoleID)
	if !errors.Is(err, domainerrors.ErrSystemRole) {
		t.Fatalf("expected system role error, got %v", err)
	}
}

func TestRoleDetailReportsAssignmentCounts(t *testing.T) {
	store, _, _, roles := newServices()

	role, err := roles.Create(context.Background(), ports.RoleCreate{Name: "auditor"})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}
	store.AssignAdmin(role.RoleID)
	store.AssignVendorUser(role.RoleID)
	store.AssignVendorUser(role.RoleID)
	store.AssignEmployee(role.RoleID)

	detail, err := roles.GetByID(context.Background(), role.RoleID)
	if err != nil {
		t.Fatalf("get role failed: %v", err)
	}
	if detail.Assignments.Admins != 1 || detail.Assignments.VendorUsers != 2 || detail.Assignments.Employees != 1 {
		t.Fatalf("unexpected assignment counts %+v", detail.Assignments)
	}
	if detail.Assignments.Total() != 4 {
		t.Fatalf("expected total 4, got %d", detail.Assignments.Total())
	}
}

func TestRolePermissionsDeduplicatesAcrossPolicies(t *testing.T) {
	_, permissions, policies, roles := newServices()

	shared, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}
	extra, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "write",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}

	viewer, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "viewer",
		PermissionIDs: []int64{shared.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}
	editor, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "editor",
		PermissionIDs: []int64{shared.PermissionID, extra.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	role, err := roles.Create(context.Background(), ports.RoleCreate{
		Name:      "billing-staff",
		PolicyIDs: []int64{viewer.PolicyID, editor.PolicyID},
	})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}

	resolved, err := roles.Permissions(context.Background(), role.RoleID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected shared permission to appear once, got %d entries", len(resolved))
	}
	seen := map[int64]int{}
	for _, permission := range resolved {
		seen[permission.PermissionID]++
	}
	if seen[shared.PermissionID] != 1 || seen[extra.PermissionID] != 1 {
		t.Fatalf("unexpected resolved set %v", seen)
	}
}

func TestCheckPermissionRequiresActivePermission(t *testing.T) {
	_, permissions, policies, roles := newServices()

	permission, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}
	policy, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "viewer",
		PermissionIDs: []int64{permission.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}
	role, err := roles.Create(context.Background(), ports.RoleCreate{
		Name:      "billing-staff",
		PolicyIDs: []int64{policy.PolicyID},
	})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}

	allowed, err := roles.CheckPermission(context.Background(), role.RoleID, "billing", "read")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("expected active permission to be granted")
	}

	inactive := false
	if _, err := permissions.Update(context.Background(), permission.PermissionID, ports.PermissionUpdate{
		IsActive: &inactive,
	}); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	allowed, err = roles.CheckPermission(context.Background(), role.RoleID, "billing", "read")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if allowed {
		t.Fatal("expected deactivated permission to be denied")
	}

	allowed, err = roles.CheckPermission(context.Background(), role.RoleID, "billing", "write")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if allowed {
		t.Fatal("expected unknown pair to be denied")
	}
}

func TestRolePermissionsUnknownRole(t *testing.T) {
	_, _, _, roles := newServices()

	_, err := roles.Permissions(context.Background(), 42)
	if !errors.Is(err, domainerrors.ErrRoleNotFound) {
		t.Fatalf("expected role not found, got %v", err)
	}
}
