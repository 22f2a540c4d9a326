package postgres

import (
	"context"
	"fmt"

	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List(ctx context.Context) ([]*permissionDatamodel.Permission, error) {
	var perms []*permissionDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("category ASC, name ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// Upsert inserts new codes and refreshes name, description and category of existing ones. IDs are stable.
func (r *PermissionRepository) Upsert(ctx context.Context, perms []*permissionDatamodel.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	for _, p := range perms {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category"}),
	}).Create(&perms).Error
	if err != nil {
		return fmt.Errorf("upsert permissions: %w", err)
	}
	return nil
}
