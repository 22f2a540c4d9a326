// Package authz decides whether a principal may do something. Superusers pass every check;
// everyone else is checked against the grants of their role, read fresh on each call.
package authz

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	"github.com/frahmantamala/dashboard-access/internal/role"
	"github.com/frahmantamala/dashboard-access/internal/user"
)

// CanonicalAdmin is the name every admin alias resolves to.
const CanonicalAdmin = "ADMIN"

type GrantSource interface {
	PermissionCodes(ctx context.Context, roleID string) ([]string, error)
}

type CatalogAPI interface {
	Loaded() bool
	ByCode(code string) (permission.Permission, bool)
}

type Engine struct {
	grants  GrantSource
	catalog CatalogAPI
	aliases role.AdminNames
	logger  *slog.Logger
}

func NewEngine(grants GrantSource, catalog CatalogAPI, adminAliases []string, logger *slog.Logger) *Engine {
	return &Engine{
		grants:  grants,
		catalog: catalog,
		aliases: AdminNames(adminAliases),
		logger:  logger,
	}
}

// CanonicalRole folds admin aliases into CanonicalAdmin. Other names are returned trimmed.
func (e *Engine) CanonicalRole(name string) string {
	if e.aliases.Contains(name) {
		return CanonicalAdmin
	}
	return strings.TrimSpace(name)
}

// AdminNames is CanonicalAdmin plus the configured aliases.
func AdminNames(aliases []string) role.AdminNames {
	return role.NewAdminNames(append([]string{CanonicalAdmin}, aliases...)...)
}

// IsAdmin is true for superuser roles and for roles named by an admin alias.
func (e *Engine) IsAdmin(p *user.Principal) bool {
	if p == nil {
		return false
	}
	return p.IsSuperuser || e.CanonicalRole(p.RoleName) == CanonicalAdmin
}

// Authorize returns nil, ErrUnauthenticated for a missing principal, ErrNotPermitted for a denial,
// or the store error that prevented a decision. All requirements must hold.
func (e *Engine) Authorize(ctx context.Context, p *user.Principal, reqs ...Requirement) error {
	if p == nil {
		return internal.ErrUnauthenticated
	}
	if e.IsAdmin(p) {
		return nil
	}

	var codes []string
	for _, req := range reqs {
		var (
			allowed bool
			err     error
		)
		switch req.kind {
		case KindAdmin:
			allowed = false
		case KindRole:
			allowed = strings.EqualFold(e.CanonicalRole(p.RoleName), e.CanonicalRole(req.value))
		case KindTenantMember:
			allowed = p.BelongsTo(req.value)
		case KindPermission:
			if codes == nil {
				codes, err = e.grants.PermissionCodes(ctx, p.RoleID)
				if err != nil {
					return err
				}
			}
			allowed = e.granted(ctx, codes, req.value)
		}

		if !allowed {
			e.logger.WarnContext(ctx, "access denied",
				"user_id", p.UserID,
				"role", p.RoleName,
				"required", req.String())
			return internal.ErrNotPermitted
		}
	}
	return nil
}

func (e *Engine) granted(ctx context.Context, codes []string, code string) bool {
	if e.catalog != nil && e.catalog.Loaded() {
		if _, ok := e.catalog.ByCode(code); !ok {
			e.logger.WarnContext(ctx, "permission code is not in the catalog", "code", code)
			return false
		}
	}
	return slices.Contains(codes, code)
}
