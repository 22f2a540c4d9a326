package tenant

import "time"

// Tenant maps onto the legacy clients table.
type Tenant struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null"`
	Plan      string    `gorm:"column:plan"`
	Status    string    `gorm:"column:status"`
	DriveLink *string   `gorm:"column:drive_link"`
	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "clients"
}

type Notice struct {
	ID        string    `gorm:"primaryKey;column:id"`
	TenantID  string    `gorm:"column:client_id;index;not null"`
	Title     string    `gorm:"column:title;not null"`
	Body      string    `gorm:"column:body"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Notice) TableName() string {
	return "notices"
}

type Access struct {
	ID        string    `gorm:"primaryKey;column:id"`
	TenantID  string    `gorm:"column:client_id;index;not null"`
	Label     string    `gorm:"column:label;not null"`
	URL       string    `gorm:"column:url"`
	Username  string    `gorm:"column:username"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Access) TableName() string {
	return "accesses"
}
