package application

import (
	"context"
	"log/slog"
	"time"

	"keystone/contexts/identity-access/iam-service/domain/entities"
	domainerrors "keystone/contexts/identity-access/iam-service/domain/errors"
	"keystone/contexts/identity-access/iam-service/ports"
)

// PermissionService owns the permission lifecycle. It assumes inputs are
// shape-validated by the request layer and re-checks only the relational
// invariants: pair uniqueness and reference guards.
type PermissionService struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s PermissionService) Create(ctx context.Context, input ports.PermissionCreate) (entities.Permission, error) {
	if _, exists, err := s.Repo.PermissionByModuleAction(ctx, input.Module, input.Action, 0); err != nil {
		return entities.Permission{}, domainerrors.Store("create permission", err)
	} else if exists {
		return entities.Permission{}, domainerrors.ErrDuplicatePermission
	}

	now := s.now()
	created, err := s.Repo.CreatePermission(ctx, entities.Permission{
		Module:      input.Module,
		Action:      input.Action,
		Description: input.Description,
		IsActive:    boolOrDefault(input.IsActive, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return entities.Permission{}, domainerrors.Store("create permission", err)
	}

	ResolveLogger(s.Logger).Debug("permission created",
		"event", "iam_permission_created",
		"module", "identity-access/iam-service",
		"layer", "application",
		"permission_id", created.PermissionID,
		"permission_module", created.Module,
		"permission_action", created.Action,
	)
	return created, nil
}

func (s PermissionService) List(ctx context.Context, filter ports.ListFilter) (ports.PermissionPage, error) {
	filter = filter.Normalize()
	items, total, err := s.Repo.ListPermissions(ctx, filter)
	if err != nil {
		return ports.PermissionPage{}, domainerrors.Store("list permissions", err)
	}
	return ports.PermissionPage{
		Items:      items,
		Pagination: ports.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s PermissionService) GetByID(ctx context.Context, id int64) (ports.PermissionDetail, error) {
	detail, err := s.Repo.PermissionDetail(ctx, id)
	if err != nil {
		return ports.PermissionDetail{}, domainerrors.Store("get permission", err)
	}
	return detail, nil
}

func (s PermissionService) Update(ctx context.Context, id int64, update ports.PermissionUpdate) (entities.Permission, error) {
	existing, err := s.Repo.PermissionByID(ctx, id)
	if err != nil {
		return entities.Permission{}, domainerrors.Store("update permission", err)
	}

	if update.Module != nil || update.Action != nil {
		module := existing.Module
		if update.Module != nil {
			module = *update.Module
		}
		action := existing.Action
		if update.Action != nil {
			action = *update.Action
		}
		if _, exists, err := s.Repo.PermissionByModuleAction(ctx, module, action, id); err != nil {
			return entities.Permission{}, domainerrors.Store("update permission", err)
		} else if exists {
			return entities.Permission{}, domainerrors.ErrDuplicatePermission
		}
	}

	updated, err := s.Repo.UpdatePermission(ctx, id, update, s.now())
	if err != nil {
		return entities.Permission{}, domainerrors.Store("update permission", err)
	}
	return updated, nil
}

func (s PermissionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Repo.PermissionByID(ctx, id); err != nil {
		return domainerrors.Store("delete permission", err)
	}
	links, err := s.Repo.CountPolicyLinks(ctx, id)
	if err != nil {
		return domainerrors.Store("delete permission", err)
	}
	if links > 0 {
		return domainerrors.ErrPermissionInUse
	}
	if err := s.Repo.DeletePermission(ctx, id); err != nil {
		return domainerrors.Store("delete permission", err)
	}

	ResolveLogger(s.Logger).Debug("permission deleted",
		"event", "iam_permission_deleted",
		"module", "identity-access/iam-service",
		"layer", "application",
		"permission_id", id,
	)
	return nil
}

func (s PermissionService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
