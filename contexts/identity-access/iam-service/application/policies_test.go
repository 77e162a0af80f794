package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

func TestCreatePolicyEnforcesPermissionCap(t *testing.T) {
	_, _, policies, _ := newServices()

	ids := make([]int64, 0, ports.MaxPolicyPermissions+1)
	for i := int64(1); i <= ports.MaxPolicyPermissions+1; i++ {
		ids = append(ids, i)
	}

	_, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "oversized",
		PermissionIDs: ids,
	})
	if !errors.Is(err, domainerrors.ErrPermissionCapExceeded) {
		t.Fatalf("expected permission cap error, got %v", err)
	}
}

func TestCreatePolicyDeduplicatesPermissionIDs(t *testing.T) {
	_, permissions, policies, _ := newServices()

	created, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}

	policy, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "billing-viewer",
		PermissionIDs: []int64{created.PermissionID, created.PermissionID, created.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}
	if policy.PermissionCount != 1 {
		t.Fatalf("expected duplicates to collapse to 1 link, got %d", policy.PermissionCount)
	}
}

func TestPolicyNameUniquePerTenantScope(t *testing.T) {
	store, _, policies, _ := newServices()
	tenant := store.AddTenant("acme")

	if _, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name: "auditor",
	}); err != nil {
		t.Fatalf("global create failed: %v", err)
	}

	// Same name under a tenant is a different scope.
	if _, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:     "auditor",
		TenantID: &tenant.TenantID,
	}); err != nil {
		t.Fatalf("tenant-scoped create failed: %v", err)
	}

	_, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:     "auditor",
		TenantID: &tenant.TenantID,
	})
	if !errors.Is(err, domainerrors.ErrDuplicatePolicyName) {
		t.Fatalf("expected duplicate name in tenant scope, got %v", err)
	}

	_, err = policies.Create(context.Background(), ports.PolicyCreate{
		Name: "auditor",
	})
	if !errors.Is(err, domainerrors.ErrDuplicatePolicyName) {
		t.Fatalf("expected duplicate name in global scope, got %v", err)
	}
}

func TestCreatePolicyRejectsInactivePermissions(t *testing.T) {
	_, permissions, policies, _ := newServices()

	inactive := false
	created, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module:   "billing",
		Action:   "read",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}

	_, err = policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "billing-viewer",
		PermissionIDs: []int64{created.PermissionID},
	})
	if !errors.Is(err, domainerrors.ErrInactivePermissions) {
		t.Fatalf("expected inactive permissions error, got %v", err)
	}
}

func TestUpdatePolicyReplacesPermissionSet(t *testing.T) {
	_, permissions, policies, _ := newServices()

	first, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}
	second, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "write",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}

	policy, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "billing-editor",
		PermissionIDs: []int64{first.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	// Absent set leaves links untouched.
	renamed := "billing-editor-v2"
	updated, err := policies.Update(context.Background(), policy.PolicyID, ports.PolicyUpdate{
		Name: &renamed,
	})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if updated.PermissionCount != 1 {
		t.Fatalf("expected links untouched on rename, got %d", updated.PermissionCount)
	}

	// Present set replaces everything.
	replacement := []int64{second.PermissionID}
	updated, err = policies.Update(context.Background(), policy.PolicyID, ports.PolicyUpdate{
		PermissionIDs: &replacement,
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if updated.PermissionCount != 1 || updated.Permissions[0].PermissionID != second.PermissionID {
		t.Fatalf("expected replaced set, got %+v", updated.Permissions)
	}

	// Present-and-empty clears.
	empty := []int64{}
	updated, err = policies.Update(context.Background(), policy.PolicyID, ports.PolicyUpdate{
		PermissionIDs: &empty,
	})
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if updated.PermissionCount != 0 {
		t.Fatalf("expected empty set, got %d links", updated.PermissionCount)
	}
}

func TestUpdatePolicyFailedReplacementKeepsOldSet(t *testing.T) {
	_, permissions, policies, _ := newServices()

	active, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}
	inactiveFlag := false
	inactive, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module:   "billing",
		Action:   "write",
		IsActive: &inactiveFlag,
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}

	policy, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "billing-viewer",
		PermissionIDs: []int64{active.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	replacement := []int64{inactive.PermissionID}
	_, err = policies.Update(context.Background(), policy.PolicyID, ports.PolicyUpdate{
		PermissionIDs: &replacement,
	})
	if !errors.Is(err, domainerrors.ErrInactivePermissions) {
		t.Fatalf("expected inactive permissions error, got %v", err)
	}

	detail, err := policies.GetByID(context.Background(), policy.PolicyID)
	if err != nil {
		t.Fatalf("get policy failed: %v", err)
	}
	if detail.PermissionCount != 1 || detail.Permissions[0].PermissionID != active.PermissionID {
		t.Fatalf("expected old link set to survive failed update, got %+v", detail.Permissions)
	}
}

func TestDeletePolicyGuards(t *testing.T) {
	_, _, policies, roles := newServices()

	linked, err := policies.Create(context.Background(), ports.PolicyCreate{Name: "linked"})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}
	role, err := roles.Create(context.Background(), ports.RoleCreate{
		Name:      "operator",
		PolicyIDs: []int64{linked.PolicyID},
	})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}

	err = policies.Delete(context.Background(), linked.PolicyID)
	if !errors.Is(err, domainerrors.ErrPolicyInUse) {
		t.Fatalf("expected policy-in-use error, got %v", err)
	}

	empty := []int64{}
	if _, err := roles.Update(context.Background(), role.RoleID, ports.RoleUpdate{
		PolicyIDs: &empty,
	}); err != nil {
		t.Fatalf("detach policy failed: %v", err)
	}
	if err := policies.Delete(context.Background(), linked.PolicyID); err != nil {
		t.Fatalf("delete after detach failed: %v", err)
	}

	system, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:           "platform-root",
		IsSystemPolicy: true,
	})
	if err != nil {
		t.Fatalf("create system policy failed: %v", err)
	}
	err = policies.Delete(context.Background(), system.PolicyID)
	if !errors.Is(err, domainerrors.ErrSystemPolicy) {
		t.Fatalf("expected system policy error, got %v", err)
	}
}

func TestListPoliciesTenantFilter(t *testing.T) {
	store, _, policies, _ := newServices()
	tenant := store.AddTenant("acme")

	for i := 0; i < 3; i++ {
		if _, err := policies.Create(context.Background(), ports.PolicyCreate{
			Name:     fmt.Sprintf("tenant-policy-%d", i),
			TenantID: &tenant.TenantID,
		}); err != nil {
			t.Fatalf("create tenant policy failed: %v", err)
		}
	}
	if _, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name: "global-policy",
	}); err != nil {
		t.Fatalf("create global policy failed: %v", err)
	}

	page, err := policies.List(context.Background(), ports.ListFilter{TenantID: &tenant.TenantID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Pagination.Total != 3 {
		t.Fatalf("expected 3 tenant policies, got %d", page.Pagination.Total)
	}
}
