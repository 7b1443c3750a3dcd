package router

import (
	appuser "github.com/oksasatya/go-ddd-user-admin/internal/application"
	"github.com/oksasatya/go-ddd-user-admin/internal/container"
	repouser "github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-admin/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-ddd-user-admin/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-ddd-user-admin/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-admin/internal/router/modules"
)

type UserModuleDeps struct {
	Users     repouser.UserRepository
	Roles     repouser.RoleRepository
	UserRoles repouser.UserRoleRepository
	Service   *appuser.Service
	Passwords *appuser.PasswordService
	Handler   *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	var deps UserModuleDeps
	if pool := container.GetPGPool(); pool != nil {
		deps.Users = pginfra.NewUserRepository(pool)
		deps.Roles = pginfra.NewRoleRepository(pool)
		deps.UserRoles = pginfra.NewUserRoleRepository(pool)
	} else {
		store := container.GetMemStore()
		if store == nil {
			store = memory.NewStore()
			container.SetMemStore(store)
		}
		deps.Users = store.Users()
		deps.Roles = store.Roles()
		deps.UserRoles = store.UserRoles()
	}

	// a nil *RabbitPublisher must not end up inside the interface
	var pub appuser.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	deps.Service = appuser.NewService(deps.Users, deps.Roles, deps.UserRoles, appuser.Deps{
		Redis:        container.GetRedis(),
		RoleCacheTTL: cfg.RoleCacheTTL,
		Logger:       logger,
		ES:           container.GetES(),
		ESUsersIndex: cfg.ESUsersIndex,
		Pub:          pub,
		AppName:      cfg.AppName,
	})
	deps.Passwords = appuser.NewPasswordService(deps.Users, container.GetRedis(), logger, pub, cfg.AccessTTL)
	deps.Handler = handlers.NewUserHandler(deps.Service, deps.Passwords, logger)
	return deps
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	userDeps := buildUserDeps()
	r.Add(modules.NewHealthModule())
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetJWT()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
