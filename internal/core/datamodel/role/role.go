package role

import "time"

// Role stores NameKey (lower-cased name) so case-insensitive uniqueness is a plain unique index on every dialect.
type Role struct {
	ID          string    `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name;not null"`
	NameKey     string    `gorm:"column:name_key;uniqueIndex;not null"`
	Description *string   `gorm:"column:description"`
	Color       string    `gorm:"column:color;not null"`
	IsSystem    bool      `gorm:"column:is_system;not null;default:false"`
	IsSuperuser bool      `gorm:"column:is_superuser;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type RolePermission struct {
	RoleID       string `gorm:"primaryKey;column:role_id"`
	PermissionID string `gorm:"primaryKey;column:permission_id;index"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
