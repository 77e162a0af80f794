package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

// Store is an in-memory entity store for tests and development wiring. It
// implements ports.Repository and ports.Clock; the clock advances one second
// per call so creation timestamps order deterministically.
type Store struct {
	mu  sync.RWMutex
	now time.Time

	nextTenantID     int64
	nextPermissionID int64
	nextPolicyID     int64
	nextRoleID       int64

	tenants     map[int64]entities.Tenant
	permissions map[int64]entities.Permission
	policies    map[int64]entities.Policy
	roles       map[int64]entities.Role

	// Link sets, insertion-ordered, owned by the parent side.
	policyPermissions map[int64][]int64
	rolePolicies      map[int64][]int64

	adminsByRole      map[int64]int64
	vendorUsersByRole map[int64]int64
	employeesByRole   map[int64]int64
}

func NewStore() *Store {
	return &Store{
		now:               time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		nextTenantID:      1,
		nextPermissionID:  1,
		nextPolicyID:      1,
		nextRoleID:        1,
		tenants:           make(map[int64]entities.Tenant),
		permissions:       make(map[int64]entities.Permission),
		policies:          make(map[int64]entities.Policy),
		roles:             make(map[int64]entities.Role),
		policyPermissions: make(map[int64][]int64),
		rolePolicies:      make(map[int64][]int64),
		adminsByRole:      make(map[int64]int64),
		vendorUsersByRole: make(map[int64]int64),
		employeesByRole:   make(map[int64]int64),
	}
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(time.Second)
	return s.now
}

// Test helpers.

func (s *Store) AddTenant(name string) entities.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant := entities.Tenant{
		TenantID:  s.nextTenantID,
		Name:      name,
		IsActive:  true,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	s.nextTenantID++
	s.tenants[tenant.TenantID] = tenant
	return tenant
}

func (s *Store) AssignAdmin(roleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminsByRole[roleID]++
}

func (s *Store) AssignVendorUser(roleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendorUsersByRole[roleID]++
}

func (s *Store) AssignEmployee(roleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employeesByRole[roleID]++
}

func (s *Store) ClearAssignments(roleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.adminsByRole, roleID)
	delete(s.vendorUsersByRole, roleID)
	delete(s.employeesByRole, roleID)
}

// Permissions.

func (s *Store) CreatePermission(_ context.Context, item entities.Permission) (entities.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Module == item.Module && existing.Action == item.Action {
			return entities.Permission{}, domainerrors.ErrDuplicatePermission
		}
	}
	item.PermissionID = s.nextPermissionID
	s.nextPermissionID++
	s.permissions[item.PermissionID] = item
	return item, nil
}

func (s *Store) PermissionByID(_ context.Context, id int64) (entities.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.permissions[id]
	if !ok {
		return entities.Permission{}, domainerrors.ErrPermissionNotFound
	}
	return item, nil
}

func (s *Store) PermissionByModuleAction(_ context.Context, module, action string, excludeID int64) (entities.Permission, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.permissions {
		if item.PermissionID == excludeID {
			continue
		}
		if item.Module == module && item.Action == action {
			return item, true, nil
		}
	}
	return entities.Permission{}, false, nil
}

func (s *Store) PermissionDetail(_ context.Context, id int64) (ports.PermissionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.permissions[id]
	if !ok {
		return ports.PermissionDetail{}, domainerrors.ErrPermissionNotFound
	}

	policies := []ports.PolicyRoleUsage{}
	for _, policyID := range s.sortedPolicyIDs() {
		if !containsID(s.policyPermissions[policyID], id) {
			continue
		}
		policies = append(policies, ports.PolicyRoleUsage{
			Policy:    s.policies[policyID],
			RoleCount: s.countRoleLinksLocked(policyID),
		})
	}
	return ports.PermissionDetail{
		Permission:  item,
		Policies:    policies,
		PolicyCount: int64(len(policies)),
	}, nil
}

func (s *Store) ListPermissions(_ context.Context, filter ports.ListFilter) ([]ports.PermissionSummary, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []entities.Permission{}
	for _, item := range s.permissions {
		if filter.IsActive != nil && item.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, item.Module, item.Action, item.Description) {
			continue
		}
		matched = append(matched, item)
	}
	sortPermissions(matched, filter.SortBy, filter.SortOrder)

	total := int64(len(matched))
	matched = pageSlice(matched, filter)

	items := make([]ports.PermissionSummary, 0, len(matched))
	for _, item := range matched {
		items = append(items, ports.PermissionSummary{
			Permission:  item,
			PolicyCount: s.countPolicyLinksLocked(item.PermissionID),
		})
	}
	return items, total, nil
}

func (s *Store) UpdatePermission(_ context.Context, id int64, update ports.PermissionUpdate, now time.Time) (entities.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.permissions[id]
	if !ok {
		return entities.Permission{}, domainerrors.ErrPermissionNotFound
	}
	if update.Module != nil {
		item.Module = *update.Module
	}
	if update.Action != nil {
		item.Action = *update.Action
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.IsActive != nil {
		item.IsActive = *update.IsActive
	}
	item.UpdatedAt = now.UTC()
	s.permissions[id] = item
	return item, nil
}

func (s *Store) DeletePermission(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[id]; !ok {
		return domainerrors.ErrPermissionNotFound
	}
	delete(s.permissions, id)
	return nil
}

func (s *Store) CountPolicyLinks(_ context.Context, permissionID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countPolicyLinksLocked(permissionID), nil
}

// Policies.

func (s *Store) CreatePolicy(_ context.Context, item entities.Policy, permissionIDs []int64) (ports.PolicySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateActivePermissionsLocked(permissionIDs); err != nil {
		return ports.PolicySummary{}, err
	}
	for _, existing := range s.policies {
		if existing.Name == item.Name && tenantEqual(existing.TenantID, item.TenantID) {
			return ports.PolicySummary{}, domainerrors.ErrDuplicatePolicyName
		}
	}
	item.PolicyID = s.nextPolicyID
	s.nextPolicyID++
	s.policies[item.PolicyID] = item
	s.policyPermissions[item.PolicyID] = append([]int64(nil), permissionIDs...)
	return s.policySummaryLocked(item.PolicyID), nil
}

func (s *Store) PolicyByID(_ context.Context, id int64) (entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.policies[id]
	if !ok {
		return entities.Policy{}, domainerrors.ErrPolicyNotFound
	}
	return item, nil
}

func (s *Store) PolicyByName(_ context.Context, name string, tenantID *int64, excludeID int64) (entities.Policy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.policies {
		if item.PolicyID == excludeID {
			continue
		}
		if item.Name == name && tenantEqual(item.TenantID, tenantID) {
			return item, true, nil
		}
	}
	return entities.Policy{}, false, nil
}

func (s *Store) PolicyDetail(_ context.Context, id int64) (ports.PolicyDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.policies[id]; !ok {
		return ports.PolicyDetail{}, domainerrors.ErrPolicyNotFound
	}

	roles := []entities.Role{}
	for _, roleID := range s.sortedRoleIDs() {
		if containsID(s.rolePolicies[roleID], id) {
			roles = append(roles, s.roles[roleID])
		}
	}
	return ports.PolicyDetail{
		PolicySummary: s.policySummaryLocked(id),
		Roles:         roles,
	}, nil
}

func (s *Store) ListPolicies(_ context.Context, filter ports.ListFilter) ([]ports.PolicySummary, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []entities.Policy{}
	for _, item := range s.policies {
		if filter.TenantID != nil && !tenantEqual(item.TenantID, filter.TenantID) {
			continue
		}
		if filter.IsActive != nil && item.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, item.Name, item.Description) {
			continue
		}
		matched = append(matched, item)
	}
	sortPolicies(matched, filter.SortBy, filter.SortOrder)

	total := int64(len(matched))
	matched = pageSlice(matched, filter)

	items := make([]ports.PolicySummary, 0, len(matched))
	for _, item := range matched {
		items = append(items, s.policySummaryLocked(item.PolicyID))
	}
	return items, total, nil
}

func (s *Store) UpdatePolicy(_ context.Context, id int64, update ports.PolicyUpdate, now time.Time) (ports.PolicySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.policies[id]
	if !ok {
		return ports.PolicySummary{}, domainerrors.ErrPolicyNotFound
	}

	// Validate the replacement set before touching anything so a failure
	// leaves both the scalar fields and the link set unchanged.
	if update.PermissionIDs != nil {
		if err := s.validateActivePermissionsLocked(*update.PermissionIDs); err != nil {
			return ports.PolicySummary{}, err
		}
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.TenantID != nil {
		item.TenantID = update.TenantID
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.IsActive != nil {
		item.IsActive = *update.IsActive
	}
	item.UpdatedAt = now.UTC()
	s.policies[id] = item

	if update.PermissionIDs != nil {
		s.policyPermissions[id] = append([]int64(nil), (*update.PermissionIDs)...)
	}
	return s.policySummaryLocked(id), nil
}

func (s *Store) DeletePolicy(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return domainerrors.ErrPolicyNotFound
	}
	delete(s.policies, id)
	delete(s.policyPermissions, id)
	return nil
}

func (s *Store) CountRoleLinks(_ context.Context, policyID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countRoleLinksLocked(policyID), nil
}

// Roles.

func (s *Store) CreateRole(_ context.Context, item entities.Role, policyIDs []int64) (ports.RoleSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateActivePoliciesLocked(policyIDs); err != nil {
		return ports.RoleSummary{}, err
	}
	for _, existing := range s.roles {
		if existing.Name == item.Name && tenantEqual(existing.TenantID, item.TenantID) {
			return ports.RoleSummary{}, domainerrors.ErrDuplicateRoleName
		}
	}
	item.RoleID = s.nextRoleID
	s.nextRoleID++
	s.roles[item.RoleID] = item
	s.rolePolicies[item.RoleID] = append([]int64(nil), policyIDs...)
	return s.roleSummaryLocked(item.RoleID), nil
}

func (s *Store) RoleByID(_ context.Context, id int64) (entities.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.roles[id]
	if !ok {
		return entities.Role{}, domainerrors.ErrRoleNotFound
	}
	return item, nil
}

func (s *Store) RoleByName(_ context.Context, name string, tenantID *int64, excludeID int64) (entities.Role, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.roles {
		if item.RoleID == excludeID {
			continue
		}
		if item.Name == name && tenantEqual(item.TenantID, tenantID) {
			return item, true, nil
		}
	}
	return entities.Role{}, false, nil
}

func (s *Store) RoleDetail(_ context.Context, id int64) (ports.RoleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.roles[id]; !ok {
		return ports.RoleSummary{}, domainerrors.ErrRoleNotFound
	}
	return s.roleSummaryLocked(id), nil
}

func (s *Store) ListRoles(_ context.Context, filter ports.ListFilter) ([]ports.RoleSummary, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []entities.Role{}
	for _, item := range s.roles {
		if filter.TenantID != nil && !tenantEqual(item.TenantID, filter.TenantID) {
			continue
		}
		if filter.IsActive != nil && item.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, item.Name, item.Description) {
			continue
		}
		matched = append(matched, item)
	}
	sortRoles(matched, filter.SortBy, filter.SortOrder)

	total := int64(len(matched))
	matched = pageSlice(matched, filter)

	items := make([]ports.RoleSummary, 0, len(matched))
	for _, item := range matched {
		items = append(items, s.roleSummaryLocked(item.RoleID))
	}
	return items, total, nil
}

func (s *Store) UpdateRole(_ context.Context, id int64, update ports.RoleUpdate, now time.Time) (ports.RoleSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.roles[id]
	if !ok {
		return ports.RoleSummary{}, domainerrors.ErrRoleNotFound
	}

	if update.PolicyIDs != nil {
		if err := s.validateActivePoliciesLocked(*update.PolicyIDs); err != nil {
			return ports.RoleSummary{}, err
		}
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.TenantID != nil {
		item.TenantID = update.TenantID
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.IsActive != nil {
		item.IsActive = *update.IsActive
	}
	item.UpdatedAt = now.UTC()
	s.roles[id] = item

	if update.PolicyIDs != nil {
		s.rolePolicies[id] = append([]int64(nil), (*update.PolicyIDs)...)
	}
	return s.roleSummaryLocked(id), nil
}

func (s *Store) DeleteRole(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return domainerrors.ErrRoleNotFound
	}
	delete(s.roles, id)
	delete(s.rolePolicies, id)
	return nil
}

func (s *Store) CountRoleAssignments(_ context.Context, roleID int64) (ports.RoleAssignmentCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.RoleAssignmentCounts{
		Admins:      s.adminsByRole[roleID],
		VendorUsers: s.vendorUsersByRole[roleID],
		Employees:   s.employeesByRole[roleID],
	}, nil
}

func (s *Store) RolePolicyPermissions(_ context.Context, roleID int64) ([]entities.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.roles[roleID]; !ok {
		return nil, domainerrors.ErrRoleNotFound
	}

	out := []entities.Permission{}
	for _, policyID := range s.rolePolicies[roleID] {
		for _, permissionID := range s.policyPermissions[policyID] {
			if permission, ok := s.permissions[permissionID]; ok {
				out = append(out, permission)
			}
		}
	}
	return out, nil
}

// Locked helpers.

func (s *Store) validateActivePermissionsLocked(ids []int64) error {
	for _, id := range ids {
		permission, ok := s.permissions[id]
		if !ok || !permission.IsActive {
			return domainerrors.ErrInactivePermissions
		}
	}
	return nil
}

func (s *Store) validateActivePoliciesLocked(ids []int64) error {
	for _, id := range ids {
		policy, ok := s.policies[id]
		if !ok || !policy.IsActive {
			return domainerrors.ErrInactivePolicies
		}
	}
	return nil
}

func (s *Store) countPolicyLinksLocked(permissionID int64) int64 {
	var count int64
	for _, linked := range s.policyPermissions {
		if containsID(linked, permissionID) {
			count++
		}
	}
	return count
}

func (s *Store) countRoleLinksLocked(policyID int64) int64 {
	var count int64
	for _, linked := range s.rolePolicies {
		if containsID(linked, policyID) {
			count++
		}
	}
	return count
}

func (s *Store) policySummaryLocked(id int64) ports.PolicySummary {
	policy := s.policies[id]
	permissions := make([]entities.Permission, 0, len(s.policyPermissions[id]))
	for _, permissionID := range s.policyPermissions[id] {
		if permission, ok := s.permissions[permissionID]; ok {
			permissions = append(permissions, permission)
		}
	}
	return ports.PolicySummary{
		Policy:          policy,
		Permissions:     permissions,
		PermissionCount: int64(len(permissions)),
		RoleCount:       s.countRoleLinksLocked(id),
	}
}

func (s *Store) roleSummaryLocked(id int64) ports.RoleSummary {
	role := s.roles[id]
	policies := make([]ports.PolicyWithPermissions, 0, len(s.rolePolicies[id]))
	for _, policyID := range s.rolePolicies[id] {
		policy, ok := s.policies[policyID]
		if !ok {
			continue
		}
		permissions := make([]entities.Permission, 0, len(s.policyPermissions[policyID]))
		for _, permissionID := range s.policyPermissions[policyID] {
			if permission, found := s.permissions[permissionID]; found {
				permissions = append(permissions, permission)
			}
		}
		policies = append(policies, ports.PolicyWithPermissions{
			Policy:      policy,
			Permissions: permissions,
		})
	}
	return ports.RoleSummary{
		Role:        role,
		Policies:    policies,
		PolicyCount: int64(len(policies)),
		Assignments: ports.RoleAssignmentCounts{
			Admins:      s.adminsByRole[id],
			VendorUsers: s.vendorUsersByRole[id],
			Employees:   s.employeesByRole[id],
		},
	}
}

func (s *Store) sortedPolicyIDs() []int64 {
	ids := make([]int64, 0, len(s.policies))
	for id := range s.policies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) sortedRoleIDs() []int64 {
	ids := make([]int64, 0, len(s.roles))
	for id := range s.roles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Shared helpers.

func tenantEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func matchesSearch(search string, fields ...string) bool {
	needle := strings.ToLower(search)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func pageSlice[T any](items []T, filter ports.ListFilter) []T {
	offset := filter.Offset()
	if offset >= len(items) {
		return nil
	}
	end := offset + filter.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Sort comparators return a strict ordering in both directions: the sort key
// comparison falls through to an id tie-break so equal keys never report
// "less" both ways.

func sortPermissions(items []entities.Permission, sortBy, order string) {
	asc := order == ports.SortOrderAsc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch sortBy {
		case "module":
			c = strings.Compare(a.Module, b.Module)
		case "action":
			c = strings.Compare(a.Action, b.Action)
		case "updated_at":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = compareIDs(a.PermissionID, b.PermissionID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func sortPolicies(items []entities.Policy, sortBy, order string) {
	asc := order == ports.SortOrderAsc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch sortBy {
		case "name":
			c = strings.Compare(a.Name, b.Name)
		case "updated_at":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = compareIDs(a.PolicyID, b.PolicyID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func sortRoles(items []entities.Role, sortBy, order string) {
	asc := order == ports.SortOrderAsc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch sortBy {
		case "name":
			c = strings.Compare(a.Name, b.Name)
		case "updated_at":
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = compareIDs(a.RoleID, b.RoleID)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
