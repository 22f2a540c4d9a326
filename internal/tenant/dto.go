package tenant

import (
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
)

// TenantRequest is the body of create and update. An empty slug on create is derived from the name.
type TenantRequest struct {
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Plan      string  `json:"plan"`
	Status    string  `json:"status"`
	DriveLink *string `json:"drive_link,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

func (r *TenantRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	r.Plan = strings.TrimSpace(r.Plan)
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		r.Status = DefaultStatus
	}
	r.DriveLink = optional(r.DriveLink)
	r.Notes = optional(r.Notes)
}

func (r *TenantRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", r.Name).Required().MaxLength(255)
	v.Field("slug", r.Slug).Required().MaxLength(100).Slug()
	v.Field("plan", r.Plan).MaxLength(50)
	v.Field("status", r.Status).MaxLength(50)
	return v.Validate()
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type TenantsResponse struct {
	Clients []*Tenant `json:"clients"`
}

type TenantResponse struct {
	Client *Tenant `json:"client"`
}

type DeleteResponse struct {
	Success bool    `json:"success"`
	Report  *Report `json:"report"`
}
