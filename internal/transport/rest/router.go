package rest

import (
	"log/slog"

	"github.com/frahmantamala/dashboard-access/internal/authz"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	"github.com/frahmantamala/dashboard-access/internal/role"
	"github.com/frahmantamala/dashboard-access/internal/session"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	"github.com/frahmantamala/dashboard-access/internal/transport/middleware"
	"github.com/frahmantamala/dashboard-access/internal/transport/swagger"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers is everything the router mounts. A nil handler leaves its routes out.
type Handlers struct {
	Health      *HealthHandler
	Auth        *authz.Middleware
	Session     *session.Handler
	Permissions *permission.Handler
	Roles       *role.Handler
	Users       *user.Handler
	Tenants     *tenant.Handler
	Document    *swagger.Document
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, allowedOrigins string, logger *slog.Logger) {
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if h.Document != nil {
		router.Get("/openapi.yml", h.Document.ServeYAML)
		router.Get("/openapi.json", h.Document.ServeJSON)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}
		rbac := h.Auth

		if h.Session != nil {
			r.Route("/auth", func(ar chi.Router) {
				ar.Post("/login", h.Session.Login)
				ar.Post("/logout", h.Session.Logout)

				ar.Group(func(pr chi.Router) {
					pr.Use(rbac.RequireAuth)
					pr.Get("/me", h.Session.Me)
					pr.Post("/logout-all", h.Session.LogoutEverywhere)
				})
			})
		}

		r.Group(func(pr chi.Router) {
			pr.Use(rbac.RequireAuth)

			// members of a client may read their own client record
			if h.Tenants != nil {
				pr.With(rbac.RequireTenantParam("id")).Get("/clients/{id}", h.Tenants.GetClient)
			}

			// every admin route names the catalog permission it needs; admins pass all of them
			pr.Route("/admin", func(ad chi.Router) {
				if h.Permissions != nil {
					ad.With(rbac.Require(authz.Permission(permission.CodeRolesView))).Get("/permissions", h.Permissions.GetPermissions)
					ad.With(rbac.Require(authz.Admin())).Post("/permissions/reload", h.Permissions.ReloadCatalog)
				}

				if h.Roles != nil {
					ad.Route("/roles", func(rr chi.Router) {
						rr.With(rbac.Require(authz.Permission(permission.CodeRolesView))).Get("/", h.Roles.ListRoles)
						rr.With(rbac.Require(authz.Permission(permission.CodeRolesCreate))).Post("/", h.Roles.CreateRole)
						rr.With(rbac.Require(authz.Permission(permission.CodeRolesView))).Get("/{id}", h.Roles.GetRole)
						rr.With(rbac.Require(authz.Permission(permission.CodeRolesEdit))).Put("/{id}", h.Roles.UpdateRole)
						rr.With(rbac.Require(authz.Permission(permission.CodeRolesDelete))).Delete("/{id}", h.Roles.DeleteRole)
					})
				}

				if h.Users != nil {
					ad.Route("/users", func(ur chi.Router) {
						ur.With(rbac.Require(authz.Permission(permission.CodeUsersView))).Get("/", h.Users.ListUsers)
						ur.With(rbac.Require(authz.Permission(permission.CodeUsersCreate))).Post("/", h.Users.CreateUser)
						ur.With(rbac.Require(authz.Permission(permission.CodeUsersView))).Get("/{id}", h.Users.GetUser)
						ur.With(rbac.Require(authz.Permission(permission.CodeUsersEdit))).Put("/{id}", h.Users.UpdateUser)
						ur.With(rbac.Require(authz.Permission(permission.CodeUsersDelete))).Delete("/{id}", h.Users.DeleteUser)
					})
				}

				if h.Tenants != nil {
					ad.Route("/clients", func(cr chi.Router) {
						cr.With(rbac.Require(authz.Permission(permission.CodeClientsView))).Get("/", h.Tenants.ListClients)
						cr.With(rbac.Require(authz.Permission(permission.CodeClientsCreate))).Post("/", h.Tenants.CreateClient)
						cr.With(rbac.Require(authz.Permission(permission.CodeClientsView))).Get("/{id}", h.Tenants.GetClient)
						cr.With(rbac.Require(authz.Permission(permission.CodeClientsEdit))).Put("/{id}", h.Tenants.UpdateClient)
						cr.With(rbac.Require(authz.Permission(permission.CodeClientsDelete))).Delete("/{id}", h.Tenants.DeleteClient)
					})
				}
			})
		})
	})
}
