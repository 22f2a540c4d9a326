package role

import (
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
)

// RoleRequest is the body of both create and update. Update replaces every field.
type RoleRequest struct {
	Name          string   `json:"name"`
	Description   *string  `json:"description,omitempty"`
	Color         *string  `json:"color,omitempty"`
	PermissionIDs []string `json:"permissions"`
}

func (r *RoleRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", r.Name).Required().MaxLength(100)
	v.Field("description", r.Description).MaxLength(500)
	v.Field("color", r.Color).HexColor()
	return v.Validate()
}

func (r *RoleRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			r.Description = nil
		} else {
			r.Description = &d
		}
	}
}

func (r *RoleRequest) color() string {
	if r.Color == nil || *r.Color == "" {
		return DefaultColor
	}
	return strings.ToUpper(*r.Color)
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}

type RoleResponse struct {
	Role *Role `json:"role"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}
