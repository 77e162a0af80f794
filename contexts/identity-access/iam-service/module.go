package iam

import (
	"log/slog"

	httpadapter "keystone/contexts/identity-access/iam-service/adapters/http"
	"keystone/contexts/identity-access/iam-service/adapters/memory"
	"keystone/contexts/identity-access/iam-service/application"
	"keystone/contexts/identity-access/iam-service/ports"
)

// Module is the iam-service composition root exposed to runtime wiring.
type Module struct {
	Handler     httpadapter.Handler
	Permissions application.PermissionService
	Policies    application.PolicyService
	Roles       application.RoleService
	Store       *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

// NewModule wires the permission, policy and role services and the transport
// handler using explicit ports.
func NewModule(deps Dependencies) Module {
	permissions := application.PermissionService{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	policies := application.PolicyService{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	roles := application.RoleService{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		Permissions: permissions,
		Policies:    policies,
		Roles:       roles,
		Logger:      deps.Logger,
	}

	return Module{
		Handler:     handler,
		Permissions: permissions,
		Policies:    policies,
		Roles:       roles,
	}
}

// NewInMemoryModule builds a development/testing module with the in-memory
// store backing both the repository and the clock.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
