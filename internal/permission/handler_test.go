package permission_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	"github.com/frahmantamala/dashboard-access/internal/permission"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Permission Handler", func() {
	var handler *permission.Handler

	BeforeEach(func() {
		repo := &mockRepository{rows: []*permissionDatamodel.Permission{
			{ID: "p1", Code: "clients.view", Name: "View clients", Category: "clients"},
			{ID: "p2", Code: "roles.view", Name: "View roles", Category: "roles"},
		}}
		catalog := permission.NewCatalog(repo, newPolicy(), nil, logger.Discard())
		Expect(catalog.Reload(context.Background())).To(Succeed())
		handler = permission.NewHandler(transport.NewBaseHandler(logger.Discard()), catalog)
	})

	It("returns the flat list and the grouped view", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/permissions", nil)
		w := httptest.NewRecorder()

		handler.GetPermissions(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp permission.CatalogResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Permissions).To(HaveLen(2))
		Expect(resp.Grouped).To(HaveKey("roles"))
	})

	It("reloads on demand", func() {
		req := httptest.NewRequest(http.MethodPost, "/admin/permissions/reload", nil)
		w := httptest.NewRecorder()

		handler.ReloadCatalog(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"count":2`))
	})
})
