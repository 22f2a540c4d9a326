package tenant

import (
	"time"

	tenantDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/tenant"
)

const DefaultStatus = "active"

type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	DriveLink *string   `json:"drive_link"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromDataModel(m *tenantDatamodel.Tenant) *Tenant {
	return &Tenant{
		ID:        m.ID,
		Name:      m.Name,
		Slug:      m.Slug,
		Plan:      m.Plan,
		Status:    m.Status,
		DriveLink: m.DriveLink,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
