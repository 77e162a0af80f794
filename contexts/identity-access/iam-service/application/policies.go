package application

import (
	"context"
	"log/slog"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

// PolicyService owns the policy lifecycle and the policy-permission link set.
// The link set is owned by the policy side: updates that supply permission
// ids replace the whole set inside one store transaction.
type PolicyService struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s PolicyService) Create(ctx context.Context, input ports.PolicyCreate) (ports.PolicySummary, error) {
	if _, exists, err := s.Repo.PolicyByName(ctx, input.Name, input.TenantID, 0); err != nil {
		return ports.PolicySummary{}, domainerrors.Store("create policy", err)
	} else if exists {
		return ports.PolicySummary{}, domainerrors.ErrDuplicatePolicyName
	}

	permissionIDs := dedupeIDs(input.PermissionIDs)
	if len(permissionIDs) > ports.MaxPolicyPermissions {
		return ports.PolicySummary{}, domainerrors.ErrPermissionCapExceeded
	}

	now := s.now()
	created, err := s.Repo.CreatePolicy(ctx, entities.Policy{
		TenantID:       input.TenantID,
		Name:           input.Name,
		Description:    input.Description,
		IsActive:       boolOrDefault(input.IsActive, true),
		IsSystemPolicy: input.IsSystemPolicy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, permissionIDs)
	if err != nil {
		return ports.PolicySummary{}, domainerrors.Store("create policy", err)
	}

	ResolveLogger(s.Logger).Debug("policy created",
		"event", "iam_policy_created",
		"module", "identity-access/iam-service",
		"layer", "application",
		"policy_id", created.PolicyID,
		"policy_name", created.Name,
		"permission_count", created.PermissionCount,
	)
	return created, nil
}

func (s PolicyService) List(ctx context.Context, filter ports.ListFilter) (ports.PolicyPage, error) {
	filter = filter.Normalize()
	items, total, err := s.Repo.ListPolicies(ctx, filter)
	if err != nil {
		return ports.PolicyPage{}, domainerrors.Store("list policies", err)
	}
	return ports.PolicyPage{
		Items:      items,
		Pagination: ports.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s PolicyService) GetByID(ctx context.Context, id int64) (ports.PolicyDetail, error) {
	detail, err := s.Repo.PolicyDetail(ctx, id)
	if err != nil {
		return ports.PolicyDetail{}, domainerrors.Store("get policy", err)
	}
	return detail, nil
}

func (s PolicyService) Update(ctx context.Context, id int64, update ports.PolicyUpdate) (ports.PolicySummary, error) {
	existing, err := s.Repo.PolicyByID(ctx, id)
	if err != nil {
		return ports.PolicySummary{}, domainerrors.Store("update policy", err)
	}

	if update.Name != nil {
		// The uniqueness scope is the supplied tenant id when present,
		// otherwise the stored one. Nil stays the global scope.
		scope := existing.TenantID
		if update.TenantID != nil {
			scope = update.TenantID
		}
		if _, exists, err := s.Repo.PolicyByName(ctx, *update.Name, scope, id); err != nil {
			return ports.PolicySummary{}, domainerrors.Store("update policy", err)
		} else if exists {
			return ports.PolicySummary{}, domainerrors.ErrDuplicatePolicyName
		}
	}

	if update.PermissionIDs != nil {
		deduped := dedupeIDs(*update.PermissionIDs)
		if len(deduped) > ports.MaxPolicyPermissions {
			return ports.PolicySummary{}, domainerrors.ErrPermissionCapExceeded
		}
		update.PermissionIDs = &deduped
	}

	updated, err := s.Repo.UpdatePolicy(ctx, id, update, s.now())
	if err != nil {
		return ports.PolicySummary{}, domainerrors.Store("update policy", err)
	}
	return updated, nil
}

func (s PolicyService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Repo.PolicyByID(ctx, id)
	if err != nil {
		return domainerrors.Store("delete policy", err)
	}
	links, err := s.Repo.CountRoleLinks(ctx, id)
	if err != nil {
		return domainerrors.Store("delete policy", err)
	}
	if links > 0 {
		return domainerrors.ErrPolicyInUse
	}
	if existing.IsSystemPolicy {
		return domainerrors.ErrSystemPolicy
	}
	if err := s.Repo.DeletePolicy(ctx, id); err != nil {
		return domainerrors.Store("delete policy", err)
	}

	ResolveLogger(s.Logger).Debug("policy deleted",
		"event", "iam_policy_deleted",
		"module", "identity-access/iam-service",
		"layer", "application",
		"policy_id", id,
	)
	return nil
}

func (s PolicyService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
