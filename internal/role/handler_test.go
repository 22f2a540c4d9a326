package role_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/role"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	roles     map[string]*role.Role
	deleteErr error
	lastReq   role.RoleRequest
}

func (s *stubService) List(ctx context.Context) ([]*role.Role, error) {
	out := []*role.Role{}
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubService) Get(ctx context.Context, id string) (*role.Role, error) {
	if r, ok := s.roles[id]; ok {
		return r, nil
	}
	return nil, internal.ErrRoleNotFound
}

func (s *stubService) Create(ctx context.Context, req role.RoleRequest) (*role.Role, error) {
	s.lastReq = req
	r := &role.Role{ID: "new", Name: req.Name, Color: role.DefaultColor}
	s.roles[r.ID] = r
	return r, nil
}

func (s *stubService) Update(ctx context.Context, id string, req role.RoleRequest) (*role.Role, error) {
	if _, ok := s.roles[id]; !ok {
		return nil, internal.ErrRoleNotFound
	}
	s.roles[id].Name = req.Name
	return s.roles[id], nil
}

func (s *stubService) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

var _ = Describe("Role Handler", func() {
	var (
		stub   *stubService
		router chi.Router
	)

	BeforeEach(func() {
		stub = &stubService{roles: map[string]*role.Role{
			"r1": {ID: "r1", Name: "Editor", Color: role.DefaultColor},
		}}
		handler := role.NewHandler(transport.NewBaseHandler(logger.Discard()), stub)

		router = chi.NewRouter()
		router.Get("/roles", handler.ListRoles)
		router.Post("/roles", handler.CreateRole)
		router.Get("/roles/{id}", handler.GetRole)
		router.Put("/roles/{id}", handler.UpdateRole)
		router.Delete("/roles/{id}", handler.DeleteRole)
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates roles and answers 201", func() {
		w := serve(http.MethodPost, "/roles", `{"name":"Support","permissions":["p1","p2"]}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(stub.lastReq.PermissionIDs).To(Equal([]string{"p1", "p2"}))
		var resp role.RoleResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Role.Name).To(Equal("Support"))
	})

	It("rejects a malformed body", func() {
		w := serve(http.MethodPost, "/roles", `{"name":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps a missing role to 404", func() {
		w := serve(http.MethodGet, "/roles/missing", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeRoleNotFound)))
	})

	It("updates in place", func() {
		w := serve(http.MethodPut, "/roles/r1", `{"name":"Writer"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(stub.roles["r1"].Name).To(Equal("Writer"))
	})

	DescribeTable("translates delete refusals",
		func(err error, status int) {
			stub.deleteErr = err
			w := serve(http.MethodDelete, "/roles/r1", "")
			Expect(w.Code).To(Equal(status))
		},
		Entry("success", nil, http.StatusOK),
		Entry("system role", internal.ErrSystemRoleProtected, http.StatusBadRequest),
		Entry("in use", internal.ErrInUse, http.StatusConflict),
		Entry("timeout", internal.ErrTimeout, http.StatusGatewayTimeout),
	)
})
