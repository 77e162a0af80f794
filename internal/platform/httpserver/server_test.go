package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	iam "keystone/contexts/identity-access/iam-service"
	iamhttp "keystone/contexts/identity-access/iam-service/transport/http"
)

func newTestServer() *Server {
	return New(iam.NewInMemoryModule(nil), nil, ":0")
}

func doJSON(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func TestCreatePermissionRoundTrip(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/api/iam/v1/permissions", map[string]any{
		"module": "billing",
		"action": "read",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var created iamhttp.PermissionDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if created.PermissionID == 0 || created.Module != "billing" || !created.IsActive {
		t.Fatalf("unexpected created permission %+v", created)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/iam/v1/permissions/1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreatePermissionRejectsBadShape(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/api/iam/v1/permissions", map[string]any{
		"module": "billing",
		"action": "Read-Invoices",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid action shape, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/iam/v1/permissions", map[string]any{
		"action": "read",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing module, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDuplicatePermissionMapsTo422(t *testing.T) {
	server := newTestServer()

	first := doJSON(t, server, http.MethodPost, "/api/iam/v1/permissions", map[string]any{
		"module": "billing",
		"action": "read",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := doJSON(t, server, http.MethodPost, "/api/iam/v1/permissions", map[string]any{
		"module": "billing",
		"action": "read",
	})
	if second.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", second.Code, second.Body.String())
	}

	var errResp iamhttp.ErrorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp.Code != "validation_failed" {
		t.Fatalf("unexpected error code %q", errResp.Code)
	}
}

func TestUnknownResourceMapsTo404(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodGet, "/api/iam/v1/roles/999", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/iam/v1/roles/not-a-number", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoleCheckEndpointFlow(t *testing.T) {
	server := newTestServer()

	permission := doJSON(t, server, http.MethodPost, "/api/iam/v1/permissions", map[string]any{
		"module": "billing",
		"action": "read",
	})
	if permission.Code != http.StatusCreated {
		t.Fatalf("create permission failed: %d", permission.Code)
	}
	var createdPermission iamhttp.PermissionDTO
	if err := json.Unmarshal(permission.Body.Bytes(), &createdPermission); err != nil {
		t.Fatalf("decode permission failed: %v", err)
	}

	policy := doJSON(t, server, http.MethodPost, "/api/iam/v1/policies", map[string]any{
		"name":           "billing-viewer",
		"permission_ids": []int64{createdPermission.PermissionID},
	})
	if policy.Code != http.StatusCreated {
		t.Fatalf("create policy failed: %d body=%s", policy.Code, policy.Body.String())
	}
	var createdPolicy iamhttp.PolicySummaryDTO
	if err := json.Unmarshal(policy.Body.Bytes(), &createdPolicy); err != nil {
		t.Fatalf("decode policy failed: %v", err)
	}

	role := doJSON(t, server, http.MethodPost, "/api/iam/v1/roles", map[string]any{
		"name":       "billing-staff",
		"policy_ids": []int64{createdPolicy.PolicyID},
	})
	if role.Code != http.StatusCreated {
		t.Fatalf("create role failed: %d body=%s", role.Code, role.Body.String())
	}
	var createdRole iamhttp.RoleSummaryDTO
	if err := json.Unmarshal(role.Body.Bytes(), &createdRole); err != nil {
		t.Fatalf("decode role failed: %v", err)
	}

	check := doJSON(t, server, http.MethodGet,
		"/api/iam/v1/roles/1/permissions/check?module=billing&action=read", nil)
	if check.Code != http.StatusOK {
		t.Fatalf("check failed: %d body=%s", check.Code, check.Body.String())
	}
	var decision iamhttp.CheckPermissionResponse
	if err := json.Unmarshal(check.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decode check failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected role to grant billing/read")
	}

	resolved := doJSON(t, server, http.MethodGet, "/api/iam/v1/roles/1/permissions", nil)
	if resolved.Code != http.StatusOK {
		t.Fatalf("resolve failed: %d body=%s", resolved.Code, resolved.Body.String())
	}
	var permissions iamhttp.RolePermissionsResponse
	if err := json.Unmarshal(resolved.Body.Bytes(), &permissions); err != nil {
		t.Fatalf("decode resolution failed: %v", err)
	}
	if permissions.Total != 1 {
		t.Fatalf("expected one resolved permission, got %d", permissions.Total)
	}
}

func TestCreateSystemEntitiesOverHTTPBlocksDelete(t *testing.T) {
	server := newTestServer()

	role := doJSON(t, server, http.MethodPost, "/api/iam/v1/roles", map[string]any{
		"name":           "platform-admin",
		"is_system_role": true,
	})
	if role.Code != http.StatusCreated {
		t.Fatalf("create system role failed: %d body=%s", role.Code, role.Body.String())
	}
	var createdRole iamhttp.RoleSummaryDTO
	if err := json.Unmarshal(role.Body.Bytes(), &createdRole); err != nil {
		t.Fatalf("decode role failed: %v", err)
	}
	if !createdRole.IsSystemRole {
		t.Fatal("expected is_system_role to survive the create round trip")
	}

	deleted := doJSON(t, server, http.MethodDelete, "/api/iam/v1/roles/1", nil)
	if deleted.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 deleting system role, got %d body=%s", deleted.Code, deleted.Body.String())
	}

	policy := doJSON(t, server, http.MethodPost, "/api/iam/v1/policies", map[string]any{
		"name":             "platform-root",
		"is_system_policy": true,
	})
	if policy.Code != http.StatusCreated {
		t.Fatalf("create system policy failed: %d body=%s", policy.Code, policy.Body.String())
	}
	var createdPolicy iamhttp.PolicySummaryDTO
	if err := json.Unmarshal(policy.Body.Bytes(), &createdPolicy); err != nil {
		t.Fatalf("decode policy failed: %v", err)
	}
	if !createdPolicy.IsSystemPolicy {
		t.Fatal("expected is_system_policy to survive the create round trip")
	}

	deleted = doJSON(t, server, http.MethodDelete, "/api/iam/v1/policies/1", nil)
	if deleted.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 deleting system policy, got %d body=%s", deleted.Code, deleted.Body.String())
	}
}

func TestDeleteRoleReturnsNoContent(t *testing.T) {
	server := newTestServer()

	created := doJSON(t, server, http.MethodPost, "/api/iam/v1/roles", map[string]any{
		"name": "temp",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create role failed: %d", created.Code)
	}

	deleted := doJSON(t, server, http.MethodDelete, "/api/iam/v1/roles/1", nil)
	if deleted.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", deleted.Code, deleted.Body.String())
	}
}
