package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/dashboard-access/internal"
	tenantDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/tenant"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) tenant.RepositoryAPI {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) List(ctx context.Context) ([]*tenantDatamodel.Tenant, error) {
	var rows []*tenantDatamodel.Tenant
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return rows, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenantDatamodel.Tenant, error) {
	var row tenantDatamodel.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &row, nil
}

func (r *TenantRepository) Create(ctx context.Context, t *tenantDatamodel.Tenant) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return translate("create client", err)
	}
	return nil
}

func (r *TenantRepository) Update(ctx context.Context, t *tenantDatamodel.Tenant) error {
	res := r.db.WithContext(ctx).
		Model(&tenantDatamodel.Tenant{ID: t.ID}).
		Select("name", "slug", "plan", "status", "drive_link", "notes", "updated_at").
		Updates(t)
	if res.Error != nil {
		return translate("update client", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrTenantNotFound
	}
	return nil
}

func translate(op string, err error) error {
	if storecall.IsUniqueViolation(err) {
		return internal.ErrDuplicateName.WithMessage("a client with this slug already exists").WithCause(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
