package tenant

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Tenant, error)
	Get(ctx context.Context, id string) (*Tenant, error)
	Create(ctx context.Context, req TenantRequest) (*Tenant, error)
	Update(ctx context.Context, id string, req TenantRequest) (*Tenant, error)
	Delete(ctx context.Context, id string) (*Report, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.List(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TenantsResponse{Clients: clients})
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TenantResponse{Client: client})
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	client, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, TenantResponse{Client: client})
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	client, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TenantResponse{Client: client})
}

// DeleteClient runs the cascade. The report is returned on success only.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, DeleteResponse{Success: true, Report: report})
}
