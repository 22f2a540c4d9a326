package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
	sessionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/session"
	tenantDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/user"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"gorm.io/gorm"
)

const userColumns = "u.id, u.name, u.email, u.password_hash, u.role_id, r.name AS role_name, " +
	"u.client_id, u.avatar_url, u.created_at, u.updated_at"

const principalColumns = "u.id, u.name, u.email, u.role_id, r.name AS role_name, r.is_superuser, " +
	"u.client_id, u.avatar_url, c.name AS client_name, c.slug AS client_slug, c.plan AS client_plan, " +
	"c.status AS client_status, c.drive_link AS client_drive_link"

type userRow struct {
	ID           string    `gorm:"column:id"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	RoleID       string    `gorm:"column:role_id"`
	RoleName     string    `gorm:"column:role_name"`
	ClientID     *string   `gorm:"column:client_id"`
	AvatarURL    *string   `gorm:"column:avatar_url"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (r userRow) toDomain() *user.User {
	return &user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		RoleID:       r.RoleID,
		RoleName:     r.RoleName,
		TenantID:     r.ClientID,
		AvatarURL:    r.AvatarURL,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type principalRow struct {
	ID              string  `gorm:"column:id"`
	Name            string  `gorm:"column:name"`
	Email           string  `gorm:"column:email"`
	RoleID          string  `gorm:"column:role_id"`
	RoleName        string  `gorm:"column:role_name"`
	IsSuperuser     bool    `gorm:"column:is_superuser"`
	ClientID        *string `gorm:"column:client_id"`
	AvatarURL       *string `gorm:"column:avatar_url"`
	ClientName      *string `gorm:"column:client_name"`
	ClientSlug      *string `gorm:"column:client_slug"`
	ClientPlan      *string `gorm:"column:client_plan"`
	ClientStatus    *string `gorm:"column:client_status"`
	ClientDriveLink *string `gorm:"column:client_drive_link"`
}

func (r principalRow) toDomain() *user.Principal {
	p := &user.Principal{
		UserID:      r.ID,
		Name:        r.Name,
		Email:       r.Email,
		RoleID:      r.RoleID,
		RoleName:    r.RoleName,
		IsSuperuser: r.IsSuperuser,
		TenantID:    r.ClientID,
		AvatarURL:   r.AvatarURL,
	}
	if r.ClientID != nil && r.ClientName != nil {
		p.Client = &user.TenantSummary{
			ID:        *r.ClientID,
			Name:      *r.ClientName,
			Slug:      deref(r.ClientSlug),
			Plan:      deref(r.ClientPlan),
			Status:    deref(r.ClientStatus),
			DriveLink: r.ClientDriveLink,
		}
	}
	return p
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("users AS u").
		Joins("JOIN roles r ON r.id = u.role_id")
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var rows []userRow
	if err := r.base(ctx).Select(userColumns).Order("u.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, "u.id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "u.email = ?", validation.NormalizeEmail(email))
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*user.User, error) {
	var rows []userRow
	if err := r.base(ctx).Select(userColumns).Where(query, arg).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrUserNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *UserRepository) GetPrincipal(ctx context.Context, id string) (*user.Principal, error) {
	var rows []principalRow
	err := r.base(ctx).
		Select(principalColumns).
		Joins("LEFT JOIN clients c ON c.id = u.client_id").
		Where("u.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrUserNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *UserRepository) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&tenantDatamodel.Tenant{}).Where("id = ?", tenantID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check client: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User, withPassword bool) error {
	columns := []interface{}{"email", "role_id", "client_id", "updated_at"}
	if withPassword {
		columns = append(columns, "password_hash")
	}
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{ID: u.ID}).
		Select("name", columns...).
		Updates(u)
	if res.Error != nil {
		return translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{ID: id}).
		Updates(map[string]interface{}{"password_hash": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("update password hash: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&sessionDatamodel.Session{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&userDatamodel.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case storecall.IsUniqueViolation(err):
		return internal.ErrDuplicateName.WithMessage("email already in use").WithCause(err)
	case storecall.IsForeignKeyViolation(err):
		return internal.NewValidationFieldError("role", "role or client does not exist", internal.ErrCodeRoleNotFound).WithCause(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
