package user

import (
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
)

const maxPasswordLength = 72

type CreateUserRequest struct {
	ClientID *string `json:"client_id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role,omitempty"`
}

func (r *CreateUserRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = validation.NormalizeEmail(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	r.ClientID = blankToNil(r.ClientID)
}

func (r *CreateUserRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", r.Name).Required().MaxLength(255)
	v.Field("email", r.Email).Required().Email().MaxLength(255)
	v.Field("password", r.Password).Required().MaxLength(maxPasswordLength)
	return v.Validate()
}

// UpdateUserRequest leaves the password, role and client untouched when they are omitted.
// An empty client_id detaches the user from its client.
type UpdateUserRequest struct {
	ClientID *string `json:"client_id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password *string `json:"password,omitempty"`
	Role     string  `json:"role,omitempty"`
}

func (r *UpdateUserRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = validation.NormalizeEmail(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	if r.Password != nil && *r.Password == "" {
		r.Password = nil
	}
	if r.ClientID != nil {
		trimmed := strings.TrimSpace(*r.ClientID)
		r.ClientID = &trimmed
	}
}

func (r *UpdateUserRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", r.Name).Required().MaxLength(255)
	v.Field("email", r.Email).Required().Email().MaxLength(255)
	v.Field("password", r.Password).MaxLength(maxPasswordLength)
	return v.Validate()
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

type UserResponse struct {
	User *User `json:"user"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}
