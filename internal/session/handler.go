package session

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/internal/user"
)

type ServiceAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Revoke(ctx context.Context, raw string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Cookie  CookieConfig
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, cookie CookieConfig) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Cookie:      cookie,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if appErr := req.Validate(); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.Cookie.Set(w, result.Token, result.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, LoginResponse{
		User:      result.Principal,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout always clears the cookie, even when the session was already gone.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	raw := h.Cookie.TokenFromRequest(r)
	h.Cookie.Clear(w)
	if raw != "" {
		if err := h.Service.Revoke(r.Context(), raw); err != nil {
			h.WriteAppError(w, r, err)
			return
		}
	}
	h.WriteJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// LogoutEverywhere revokes every session of the caller, the current one included.
func (h *Handler) LogoutEverywhere(w http.ResponseWriter, r *http.Request) {
	principal, ok := user.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}
	n, err := h.Service.RevokeAllForUser(r.Context(), principal.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.Cookie.Clear(w)
	h.WriteJSON(w, http.StatusOK, LogoutResponse{Success: true, Revoked: n})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := user.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, MeResponse{User: principal})
}
