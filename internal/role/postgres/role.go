package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/user"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/role"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var roles []*roleDatamodel.Role
	if err := r.db.WithContext(ctx).Order("is_system DESC, name_key ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*roleDatamodel.Role, error) {
	var m roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role %s: %w", id, err)
	}
	return &m, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	var m roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("name_key = ?", role.NameKey(name)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &m, nil
}

type grantRow struct {
	RoleID string
	permissionDatamodel.Permission
}

// Permissions returns the grants of every given role keyed by role id, each ordered by category then name.
func (r *RoleRepository) Permissions(ctx context.Context, roleIDs []string) (map[string][]*permissionDatamodel.Permission, error) {
	out := make(map[string][]*permissionDatamodel.Permission, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}

	var rows []grantRow
	err := r.db.WithContext(ctx).
		Table("role_permissions AS rp").
		Select("rp.role_id, p.id, p.code, p.name, p.description, p.category, p.created_at").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Where("rp.role_id IN ?", roleIDs).
		Order("p.category ASC, p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	for i := range rows {
		p := rows[i].Permission
		out[rows[i].RoleID] = append(out[rows[i].RoleID], &p)
	}
	return out, nil
}

func (r *RoleRepository) PermissionCodes(ctx context.Context, roleID string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Table("role_permissions AS rp").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Where("rp.role_id = ?", roleID).
		Pluck("p.code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("load permission codes for role %s: %w", roleID, err)
	}
	return codes, nil
}

// Create inserts the role and its grants in one transaction. The name_key unique index closes
// the race between concurrent creators.
func (r *RoleRepository) Create(ctx context.Context, m *roleDatamodel.Role, permissionIDs []string) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return insertGrants(tx, m.ID, permissionIDs)
	})
	return translate("create role", err, internal.ErrPermissionNotFound)
}

// Update rewrites the role's attributes and replaces its grants with exactly permissionIDs.
func (r *RoleRepository) Update(ctx context.Context, m *roleDatamodel.Role, permissionIDs []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current roleDatamodel.Role
		if err := tx.Where("id = ?", m.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRoleNotFound
			}
			return err
		}

		err := tx.Model(&current).
			Select("name", "name_key", "description", "color", "updated_at").
			Updates(&roleDatamodel.Role{
				Name:        m.Name,
				NameKey:     m.NameKey,
				Description: m.Description,
				Color:       m.Color,
			}).Error
		if err != nil {
			return err
		}

		if err := tx.Where("role_id = ?", m.ID).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return insertGrants(tx, m.ID, permissionIDs)
	})
	return translate("update role", err, internal.ErrPermissionNotFound)
}

// MarkSystem sets is_system, and is_superuser when asked. Promoting to superuser also detaches
// the role's users from their clients.
func (r *RoleRepository) MarkSystem(ctx context.Context, id string, superuser bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"is_system": true, "updated_at": time.Now()}
		if superuser {
			updates["is_superuser"] = true
		}
		res := tx.Model(&roleDatamodel.Role{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrRoleNotFound
		}
		if !superuser {
			return nil
		}
		return tx.Model(&userDatamodel.User{}).Where("role_id = ?", id).Update("client_id", nil).Error
	})
	return translate("mark system role", err, internal.ErrRoleNotFound)
}

// Delete checks existence, then the system flag, then assignment, and only then removes grants and the row.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m roleDatamodel.Role
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRoleNotFound
			}
			return err
		}
		if m.IsSystem {
			return internal.ErrSystemRoleProtected
		}

		var assigned int64
		if err := tx.Model(&userDatamodel.User{}).Where("role_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return internal.ErrInUse.WithDetails(map[string]int64{"users": assigned})
		}

		if err := tx.Where("role_id = ?", id).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&roleDatamodel.Role{}).Error
	})
	return translate("delete role", err, internal.ErrInUse)
}

func insertGrants(tx *gorm.DB, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	grants := make([]roleDatamodel.RolePermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		grants = append(grants, roleDatamodel.RolePermission{RoleID: roleID, PermissionID: pid})
	}
	return tx.Create(&grants).Error
}

// translate maps constraint violations onto the error taxonomy and wraps everything else.
// A foreign key violation becomes onForeignKey.
func translate(op string, err error, onForeignKey *internal.AppError) error {
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	switch {
	case storecall.IsUniqueViolation(err):
		return internal.ErrDuplicateName.WithMessage("a role with this name already exists").WithCause(err)
	case storecall.IsForeignKeyViolation(err):
		return onForeignKey.WithCause(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
