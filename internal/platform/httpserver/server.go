package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	iam "keystone/contexts/identity-access/iam-service"
	iamerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
	iamhttp "keystone/contexts/identity-access/iam-service/transport/http"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "keystone/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	iam    iam.Module
}

func New(iamModule iam.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		iam:    iamModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.requestID(s.mux))
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/iam/v1/permissions", s.handleCreatePermission)
	s.mux.HandleFunc("GET /api/iam/v1/permissions", s.handleListPermissions)
	s.mux.HandleFunc("GET /api/iam/v1/permissions/{permission_id}", s.handleGetPermission)
	s.mux.HandleFunc("PATCH /api/iam/v1/permissions/{permission_id}", s.handleUpdatePermission)
	s.mux.HandleFunc("DELETE /api/iam/v1/permissions/{permission_id}", s.handleDeletePermission)

	s.mux.HandleFunc("POST /api/iam/v1/policies", s.handleCreatePolicy)
	s.mux.HandleFunc("GET /api/iam/v1/policies", s.handleListPolicies)
	s.mux.HandleFunc("GET /api/iam/v1/policies/{policy_id}", s.handleGetPolicy)
	s.mux.HandleFunc("PATCH /api/iam/v1/policies/{policy_id}", s.handleUpdatePolicy)
	s.mux.HandleFunc("DELETE /api/iam/v1/policies/{policy_id}", s.handleDeletePolicy)

	s.mux.HandleFunc("POST /api/iam/v1/roles", s.handleCreateRole)
	s.mux.HandleFunc("GET /api/iam/v1/roles", s.handleListRoles)
	s.mux.HandleFunc("GET /api/iam/v1/roles/{role_id}", s.handleGetRole)
	s.mux.HandleFunc("PATCH /api/iam/v1/roles/{role_id}", s.handleUpdateRole)
	s.mux.HandleFunc("DELETE /api/iam/v1/roles/{role_id}", s.handleDeleteRole)
	s.mux.HandleFunc("GET /api/iam/v1/roles/{role_id}/permissions", s.handleRolePermissions)
	s.mux.HandleFunc("GET /api/iam/v1/roles/{role_id}/permissions/check", s.handleCheckPermission)
}

// requestID tags every request with an X-Request-Id, honoring one supplied
// by the caller.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		s.logger.Debug("http request received",
			"event", "http_request_received",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r)
	})
}

// Permissions.

func (s *Server) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req iamhttp.CreatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIAMError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.iam.Handler.CreatePermissionHandler(r.Context(), req)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.ListPermissionsHandler(r.Context(), filter)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "permission_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.GetPermissionHandler(r.Context(), id)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "permission_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	var req iamhttp.UpdatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIAMError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.iam.Handler.UpdatePermissionHandler(r.Context(), id, req)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "permission_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	if err := s.iam.Handler.DeletePermissionHandler(r.Context(), id); err != nil {
		writeIAMDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Policies.

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req iamhttp.CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIAMError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.iam.Handler.CreatePolicyHandler(r.Context(), req)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.ListPoliciesHandler(r.Context(), filter)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "policy_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.GetPolicyHandler(r.Context(), id)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "policy_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	var req iamhttp.UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIAMError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.iam.Handler.UpdatePolicyHandler(r.Context(), id, req)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "policy_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	if err := s.iam.Handler.DeletePolicyHandler(r.Context(), id); err != nil {
		writeIAMDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roles.

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req iamhttp.CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIAMError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.iam.Handler.CreateRoleHandler(r.Context(), req)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.ListRolesHandler(r.Context(), filter)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "role_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.GetRoleHandler(r.Context(), id)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "role_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	var req iamhttp.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIAMError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.iam.Handler.UpdateRoleHandler(r.Context(), id, req)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "role_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	if err := s.iam.Handler.DeleteRoleHandler(r.Context(), id); err != nil {
		writeIAMDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "role_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	resp, err := s.iam.Handler.RolePermissionsHandler(r.Context(), id)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckPermission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "role_id")
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	query := r.URL.Query()
	resp, err := s.iam.Handler.CheckPermissionHandler(
		r.Context(),
		id,
		query.Get("module"),
		query.Get("action"),
	)
	if err != nil {
		writeIAMDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Query parsing.

func parseID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, iamerrors.InvalidFieldf("%s must be a positive integer", name)
	}
	return id, nil
}

func parseListFilter(r *http.Request) (ports.ListFilter, error) {
	query := r.URL.Query()
	filter := ports.ListFilter{
		Search:    strings.TrimSpace(query.Get("search")),
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
	}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ports.ListFilter{}, iamerrors.InvalidFieldf("page must be a positive integer")
		}
		filter.Page = page
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ports.ListFilter{}, iamerrors.InvalidFieldf("limit must be a positive integer")
		}
		filter.Limit = limit
	}
	if raw := query.Get("tenant_id"); raw != "" {
		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tenantID < 1 {
			return ports.ListFilter{}, iamerrors.InvalidFieldf("tenant_id must be a positive integer")
		}
		filter.TenantID = &tenantID
	}
	if raw := query.Get("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			return ports.ListFilter{}, iamerrors.InvalidFieldf("is_active must be a boolean")
		}
		filter.IsActive = &isActive
	}
	return filter, nil
}

// Error mapping.

func writeIAMDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, iamerrors.ErrNotFound):
		writeIAMError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, iamerrors.ErrInvalidField):
		writeIAMError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, iamerrors.ErrValidation):
		writeIAMError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		writeIAMError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeIAMError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, iamhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
