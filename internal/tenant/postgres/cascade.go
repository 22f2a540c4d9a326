package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/dashboard-access/internal"
	sessionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/session"
	tenantDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/user"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	"gorm.io/gorm"
)

type CascadeRepository struct {
	db *gorm.DB
}

func NewCascadeRepository(db *gorm.DB) tenant.CascadeStore {
	return &CascadeRepository{db: db}
}

// InTx drives the transaction by hand so a failed rollback can be told apart from a clean one.
func (r *CascadeRepository) InTx(ctx context.Context, fn func(tx tenant.CascadeTx) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin cascade: %w", tx.Error)
	}

	if err := fn(&cascadeTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return internal.ErrPartialFailure.WithCause(fmt.Errorf("%w; rollback: %v", err, rbErr))
		}
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit cascade: %w", err)
	}
	return nil
}

type cascadeTx struct {
	tx *gorm.DB
}

func (c *cascadeTx) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var count int64
	if err := c.tx.WithContext(ctx).Model(&tenantDatamodel.Tenant{}).Where("id = ?", tenantID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *cascadeTx) DeleteStep(ctx context.Context, step tenant.Step, tenantID string) (int64, error) {
	db := c.tx.WithContext(ctx)
	var res *gorm.DB
	switch step {
	case tenant.StepNotices:
		res = db.Where("client_id = ?", tenantID).Delete(&tenantDatamodel.Notice{})
	case tenant.StepAccesses:
		res = db.Where("client_id = ?", tenantID).Delete(&tenantDatamodel.Access{})
	case tenant.StepSessions:
		users := c.tx.WithContext(ctx).Model(&userDatamodel.User{}).Select("id").Where("client_id = ?", tenantID)
		res = db.Where("user_id IN (?)", users).Delete(&sessionDatamodel.Session{})
	case tenant.StepUsers:
		res = db.Where("client_id = ?", tenantID).Delete(&userDatamodel.User{})
	case tenant.StepTenant:
		res = db.Where("id = ?", tenantID).Delete(&tenantDatamodel.Tenant{})
	default:
		return 0, fmt.Errorf("unknown cascade step %q", step)
	}
	return res.RowsAffected, res.Error
}
