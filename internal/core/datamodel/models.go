package datamodel

import (
	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/role"
	sessionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/session"
	tenantDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/user"
)

// Models lists every table in dependency order, for AutoMigrate in tests and tooling.
func Models() []any {
	return []any{
		&tenantDatamodel.Tenant{},
		&permissionDatamodel.Permission{},
		&roleDatamodel.Role{},
		&roleDatamodel.RolePermission{},
		&userDatamodel.User{},
		&sessionDatamodel.Session{},
		&tenantDatamodel.Notice{},
		&tenantDatamodel.Access{},
	}
}
