package role

import (
	"strings"
	"time"

	roleDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/role"
	"github.com/frahmantamala/dashboard-access/internal/permission"
)

const DefaultColor = "#6B7280"

type Role struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description *string                 `json:"description"`
	Color       string                  `json:"color"`
	IsSystem    bool                    `json:"is_system_role"`
	IsSuperuser bool                    `json:"is_superuser"`
	Permissions []permission.Permission `json:"permissions"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func (r *Role) PermissionIDs() []string {
	ids := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		ids = append(ids, p.ID)
	}
	return ids
}

func (r *Role) HasPermission(code string) bool {
	for _, p := range r.Permissions {
		if p.Code == code {
			return true
		}
	}
	return false
}

// NameKey is the case-folded form used for uniqueness.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func FromDataModel(m *roleDatamodel.Role, perms []permission.Permission) *Role {
	if perms == nil {
		perms = []permission.Permission{}
	}
	return &Role{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Color:       m.Color,
		IsSystem:    m.IsSystem,
		IsSuperuser: m.IsSuperuser,
		Permissions: perms,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// AdminNames is the set of role names that mean the admin role, compared by NameKey.
type AdminNames map[string]struct{}

func NewAdminNames(names ...string) AdminNames {
	n := AdminNames{}
	for _, name := range names {
		if key := NameKey(name); key != "" {
			n[key] = struct{}{}
		}
	}
	return n
}

func (n AdminNames) Contains(name string) bool {
	_, ok := n[NameKey(name)]
	return ok
}

// IsAdmin is true for superuser roles and for roles named by an admin alias.
func (n AdminNames) IsAdmin(r *Role) bool {
	return r != nil && (r.IsSuperuser || n.Contains(r.Name))
}
