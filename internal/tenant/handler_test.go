package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubTenants struct {
	created   tenant.TenantRequest
	deleteErr error
}

func (s *stubTenants) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return []*tenant.Tenant{{ID: "t1", Name: "Acme", Slug: "acme"}}, nil
}

func (s *stubTenants) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	if id != "t1" {
		return nil, internal.ErrTenantNotFound
	}
	return &tenant.Tenant{ID: "t1", Name: "Acme", Slug: "acme"}, nil
}

func (s *stubTenants) Create(ctx context.Context, req tenant.TenantRequest) (*tenant.Tenant, error) {
	s.created = req
	if req.Slug == "taken" {
		return nil, internal.ErrDuplicateName
	}
	return &tenant.Tenant{ID: "t2", Name: req.Name, Slug: req.Slug}, nil
}

func (s *stubTenants) Update(ctx context.Context, id string, req tenant.TenantRequest) (*tenant.Tenant, error) {
	return &tenant.Tenant{ID: id, Name: req.Name, Slug: req.Slug}, nil
}

func (s *stubTenants) Delete(ctx context.Context, id string) (*tenant.Report, error) {
	if s.deleteErr != nil {
		return &tenant.Report{TenantID: id, State: tenant.StateFailed}, s.deleteErr
	}
	return &tenant.Report{
		TenantID: id,
		State:    tenant.StateDone,
		Removed:  map[tenant.Step]int64{tenant.StepNotices: 2, tenant.StepTenant: 1},
	}, nil
}

var _ = Describe("Tenant Handler", func() {
	var (
		stub   *stubTenants
		router chi.Router
	)

	BeforeEach(func() {
		stub = &stubTenants{}
		h := tenant.NewHandler(transport.NewBaseHandler(logger.Discard()), stub)
		router = chi.NewRouter()
		router.Get("/clients", h.ListClients)
		router.Post("/clients", h.CreateClient)
		router.Get("/clients/{id}", h.GetClient)
		router.Put("/clients/{id}", h.UpdateClient)
		router.Delete("/clients/{id}", h.DeleteClient)
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("lists clients", func() {
		rec := serve(http.MethodGet, "/clients", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"clients":[`))
	})

	It("creates a client", func() {
		rec := serve(http.MethodPost, "/clients", `{"name":"Globex","slug":"globex","drive_link":"https://d"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(*stub.created.DriveLink).To(Equal("https://d"))
	})

	It("answers 409 on a taken slug", func() {
		rec := serve(http.MethodPost, "/clients", `{"name":"Globex","slug":"taken"}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring("DUPLICATE_NAME"))
	})

	It("answers 404 for an unknown client", func() {
		rec := serve(http.MethodGet, "/clients/nope", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("returns the cascade report on delete", func() {
		rec := serve(http.MethodDelete, "/clients/t1", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"state":"done"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"notices":2`))
	})

	It("hides the cause of a failed cascade", func() {
		stub.deleteErr = &tenant.StepError{Step: tenant.StepUsers, Err: context.DeadlineExceeded}
		rec := serve(http.MethodDelete, "/clients/t1", "")
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("deadline"))
	})
})
