package session

import (
	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
	"github.com/frahmantamala/dashboard-access/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", r.Email).Required()
	v.Field("password", r.Password).Required()
	return v.Validate()
}

type LoginResponse struct {
	User      *user.Principal `json:"user"`
	ExpiresAt string          `json:"expires_at"`
}

type MeResponse struct {
	User *user.Principal `json:"user"`
}

type LogoutResponse struct {
	Success bool  `json:"success"`
	Revoked int64 `json:"revoked,omitempty"`
}
