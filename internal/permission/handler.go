package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dashboard-access/internal/transport"
)

type ServiceAPI interface {
	List() []Permission
	Grouped() map[string][]Permission
	Reload(ctx context.Context) error
}

type Handler struct {
	*transport.BaseHandler
	Catalog ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, catalog ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Catalog:     catalog,
	}
}

func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, CatalogResponse{
		Permissions: h.Catalog.List(),
		Grouped:     h.Catalog.Grouped(),
	})
}

func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Reload(r.Context()); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ReloadResponse{Count: len(h.Catalog.List())})
}
