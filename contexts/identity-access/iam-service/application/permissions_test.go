package application

import (
	"context"
	"errors"
	"testing"

	"keystone/contexts/identity-access/iam-service/adapters/memory"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

func newServices() (*memory.Store, PermissionService, PolicyService, RoleService) {
	store := memory.NewStore()
	permissions := PermissionService{Repo: store, Clock: store}
	policies := PolicyService{Repo: store, Clock: store}
	roles := RoleService{Repo: store, Clock: store}
	return store, permissions, policies, roles
}

func TestCreatePermissionRejectsDuplicatePair(t *testing.T) {
	_, permissions, _, _ := newServices()

	_, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err = permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if !errors.Is(err, domainerrors.ErrDuplicatePermission) {
		t.Fatalf("expected duplicate permission error, got %v", err)
	}

	// Same module with a different action is a distinct pair.
	if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "write",
	}); err != nil {
		t.Fatalf("distinct pair create failed: %v", err)
	}
}

func TestUpdatePermissionRejectsPairCollision(t *testing.T) {
	_, permissions, _, _ := newServices()

	first, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "write",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	read := "read"
	_, err = permissions.Update(context.Background(), second.PermissionID, ports.PermissionUpdate{
		Action: &read,
	})
	if !errors.Is(err, domainerrors.ErrDuplicatePermission) {
		t.Fatalf("expected duplicate permission error, got %v", err)
	}

	// Updating a permission onto its own pair is not a collision.
	if _, err := permissions.Update(context.Background(), first.PermissionID, ports.PermissionUpdate{
		Action: &read,
	}); err != nil {
		t.Fatalf("self update failed: %v", err)
	}
}

func TestPermissionDefaultsToActive(t *testing.T) {
	_, permissions, _, _ := newServices()

	created, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "reports",
		Action: "export",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !created.IsActive {
		t.Fatal("expected permission to default to active")
	}

	inactive := false
	other, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module:   "reports",
		Action:   "archive",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if other.IsActive {
		t.Fatal("expected explicit inactive flag to stick")
	}
}

func TestDeletePermissionBlockedUntilPoliciesRelease(t *testing.T) {
	_, permissions, policies, _ := newServices()

	viewInvoices, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "billing",
		Action: "read",
	})
	if err != nil {
		t.Fatalf("create permission failed: %v", err)
	}

	policy, err := policies.Create(context.Background(), ports.PolicyCreate{
		Name:          "billing-viewer",
		PermissionIDs: []int64{viewInvoices.PermissionID},
	})
	if err != nil {
		t.Fatalf("create policy failed: %v", err)
	}

	err = permissions.Delete(context.Background(), viewInvoices.PermissionID)
	if !errors.Is(err, domainerrors.ErrPermissionInUse) {
		t.Fatalf("expected permission-in-use error, got %v", err)
	}

	empty := []int64{}
	if _, err := policies.Update(context.Background(), policy.PolicyID, ports.PolicyUpdate{
		PermissionIDs: &empty,
	}); err != nil {
		t.Fatalf("clear permission set failed: %v", err)
	}

	if err := permissions.Delete(context.Background(), viewInvoices.PermissionID); err != nil {
		t.Fatalf("delete after release failed: %v", err)
	}

	_, err = permissions.GetByID(context.Background(), viewInvoices.PermissionID)
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListPermissionsPagination(t *testing.T) {
	_, permissions, _, _ := newServices()

	actions := []string{
		"create", "read", "update", "delete", "approve", "reject",
		"export", "import", "archive", "restore", "assign", "revoke",
	}
	for _, action := range actions {
		if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
			Module: "orders",
			Action: action,
		}); err != nil {
			t.Fatalf("create %s failed: %v", action, err)
		}
	}

	first, err := permissions.List(context.Background(), ports.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list page 1 failed: %v", err)
	}
	if len(first.Items) != 10 {
		t.Fatalf("expected 10 items on page 1, got %d", len(first.Items))
	}
	if first.Pagination.Total != 12 || first.Pagination.Pages != 2 {
		t.Fatalf("unexpected pagination %+v", first.Pagination)
	}

	second, err := permissions.List(context.Background(), ports.ListFilter{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("list page 2 failed: %v", err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(second.Items))
	}

	beyond, err := permissions.List(context.Background(), ports.ListFilter{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("list page 3 failed: %v", err)
	}
	if len(beyond.Items) != 0 {
		t.Fatalf("expected empty page beyond range, got %d items", len(beyond.Items))
	}
	if beyond.Pagination.Total != 12 {
		t.Fatalf("expected total to stay 12, got %d", beyond.Pagination.Total)
	}
}

func TestListPermissionsDescendingSortWithEqualKeys(t *testing.T) {
	_, permissions, _, _ := newServices()

	// All rows share the same module so the sort key ties on every pair.
	for _, action := range []string{"create", "read", "update", "delete", "approve"} {
		if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
			Module: "billing",
			Action: action,
		}); err != nil {
			t.Fatalf("create %s failed: %v", action, err)
		}
	}

	page, err := permissions.List(context.Background(), ports.ListFilter{
		SortBy:    "module",
		SortOrder: ports.SortOrderDesc,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 5 {
		t.Fatalf("expected all 5 rows, got %d", len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i-1].PermissionID <= page.Items[i].PermissionID {
			t.Fatalf("expected strict descending id tie-break, got %d before %d",
				page.Items[i-1].PermissionID, page.Items[i].PermissionID)
		}
	}
}

func TestListPermissionsSearchAndActiveFilter(t *testing.T) {
	_, permissions, _, _ := newServices()

	if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module:      "billing",
		Action:      "read",
		Description: "view invoices",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	inactive := false
	if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module:   "billing",
		Action:   "write",
		IsActive: &inactive,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := permissions.Create(context.Background(), ports.PermissionCreate{
		Module: "reports",
		Action: "export",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	bySearch, err := permissions.List(context.Background(), ports.ListFilter{Search: "INVOICE"})
	if err != nil {
		t.Fatalf("search list failed: %v", err)
	}
	if bySearch.Pagination.Total != 1 {
		t.Fatalf("expected case-insensitive search to match 1, got %d", bySearch.Pagination.Total)
	}

	active := true
	byActive, err := permissions.List(context.Background(), ports.ListFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("active list failed: %v", err)
	}
	if byActive.Pagination.Total != 2 {
		t.Fatalf("expected 2 active permissions, got %d", byActive.Pagination.Total)
	}
}
