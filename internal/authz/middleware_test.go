package authz_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/authz"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubValidator struct {
	principals map[string]*user.Principal
	err        error
}

func (v *stubValidator) Validate(ctx context.Context, raw string) (*user.Principal, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.principals[raw], nil
}

var _ = Describe("Middleware", func() {
	var (
		validator *stubValidator
		grants    *mockGrants
		router    chi.Router
		seenActor string
	)

	BeforeEach(func() {
		seenActor = ""
		validator = &stubValidator{principals: map[string]*user.Principal{
			"tok-admin":   {UserID: "u-admin", RoleName: "ADMIN", IsSuperuser: true},
			"tok-cliente": {UserID: "u-1", RoleID: "role-cliente", RoleName: "Cliente", TenantID: strPtr("t-1")},
		}}
		grants = &mockGrants{byRole: map[string][]string{"role-cliente": {"clients.view"}}}
		engine := authz.NewEngine(grants, nil, nil, logger.Discard())
		mw := authz.NewMiddleware(transport.NewBaseHandler(logger.Discard()), engine, validator, func(r *http.Request) string {
			return r.Header.Get("X-Test-Token")
		})

		ok := func(w http.ResponseWriter, r *http.Request) {
			seenActor = internal.ActorIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}

		router = chi.NewRouter()
		router.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Get("/me", ok)
			r.With(mw.Require(authz.Admin())).Get("/admin", ok)
			r.With(mw.Require(authz.Permission("clients.view"))).Get("/clients", ok)
			r.With(mw.Require(authz.Permission("clients.delete"))).Delete("/clients", ok)
			r.With(mw.RequireTenantParam("id")).Get("/clients/{id}/dashboard", ok)
		})
	})

	serve := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("X-Test-Token", token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("answers 401 without a live session", func() {
		Expect(serve(http.MethodGet, "/me", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(serve(http.MethodGet, "/me", "tok-revoked").Code).To(Equal(http.StatusUnauthorized))
	})

	It("puts the principal's id on the context", func() {
		Expect(serve(http.MethodGet, "/me", "tok-cliente").Code).To(Equal(http.StatusNoContent))
		Expect(seenActor).To(Equal("u-1"))
	})

	It("surfaces a store timeout as a timeout, not a denial", func() {
		validator.err = internal.ErrTimeout
		Expect(serve(http.MethodGet, "/me", "tok-cliente").Code).To(Equal(http.StatusGatewayTimeout))
	})

	It("answers 403 without naming the missing permission", func() {
		rec := serve(http.MethodDelete, "/clients", "tok-cliente")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring("not permitted"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("clients.delete"))
	})

	It("gates by permission, admin and client membership", func() {
		Expect(serve(http.MethodGet, "/clients", "tok-cliente").Code).To(Equal(http.StatusNoContent))
		Expect(serve(http.MethodGet, "/admin", "tok-cliente").Code).To(Equal(http.StatusForbidden))
		Expect(serve(http.MethodGet, "/admin", "tok-admin").Code).To(Equal(http.StatusNoContent))

		Expect(serve(http.MethodGet, "/clients/t-1/dashboard", "tok-cliente").Code).To(Equal(http.StatusNoContent))
		Expect(serve(http.MethodGet, "/clients/t-2/dashboard", "tok-cliente").Code).To(Equal(http.StatusForbidden))
		Expect(serve(http.MethodGet, "/clients/t-2/dashboard", "tok-admin").Code).To(Equal(http.StatusNoContent))
	})
})
