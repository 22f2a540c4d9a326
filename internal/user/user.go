package user

import "time"

// TenantSummary is the slice of the owning client shown alongside a principal.
type TenantSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Plan      string  `json:"plan"`
	Status    string  `json:"status"`
	DriveLink *string `json:"drive_link"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	RoleName     string    `json:"role"`
	TenantID     *string   `json:"client_id"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the identity a validated session resolves to.
type Principal struct {
	UserID      string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	RoleID      string         `json:"role_id"`
	RoleName    string         `json:"role"`
	IsSuperuser bool           `json:"is_superuser"`
	TenantID    *string        `json:"client_id"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	Client      *TenantSummary `json:"client,omitempty"`
	SessionID   string         `json:"-"`
}

func (p *Principal) BelongsTo(tenantID string) bool {
	return p.TenantID != nil && *p.TenantID == tenantID
}
