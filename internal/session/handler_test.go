package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/session"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubSessions struct {
	revoked    []string
	revokedAll string
}

func (s *stubSessions) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	if password != "s3cret" {
		return nil, internal.ErrInvalidCredentials
	}
	return &session.LoginResult{
		Principal: &user.Principal{UserID: "user-1", Email: email, RoleName: "Cliente"},
		Token:     "user-1:sess-1",
		ExpiresAt: time.Date(2026, 5, 11, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubSessions) Revoke(ctx context.Context, raw string) error {
	s.revoked = append(s.revoked, raw)
	return nil
}

func (s *stubSessions) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	s.revokedAll = userID
	return 3, nil
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var _ = Describe("Session Handler", func() {
	var (
		stub    *stubSessions
		handler *session.Handler
		cookie  session.CookieConfig
	)

	BeforeEach(func() {
		stub = &stubSessions{}
		cookie = session.CookieConfig{Name: internal.DefaultCookieName, Secure: true}
		handler = session.NewHandler(transport.NewBaseHandler(logger.Discard()), stub, cookie)
	})

	Describe("Login", func() {
		It("sets an httpOnly lax cookie on success", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"s3cret"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			c := findCookie(rec, internal.DefaultCookieName)
			Expect(c).NotTo(BeNil())
			Expect(c.Value).To(Equal("user-1:sess-1"))
			Expect(c.HttpOnly).To(BeTrue())
			Expect(c.Secure).To(BeTrue())
			Expect(c.SameSite).To(Equal(http.SameSiteLaxMode))
			Expect(c.Path).To(Equal("/"))
			Expect(rec.Body.String()).To(ContainSubstring(`"expires_at":"2026-05-11T10:00:00Z"`))
		})

		It("answers with the generic message on bad credentials", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"x"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(ContainSubstring("invalid credentials"))
			Expect(findCookie(rec, internal.DefaultCookieName)).To(BeNil())
		})

		It("requires both fields", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":""}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Logout", func() {
		It("revokes the session and clears the cookie", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.AddCookie(&http.Cookie{Name: internal.DefaultCookieName, Value: "user-1:sess-1"})
			rec := httptest.NewRecorder()
			handler.Logout(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(stub.revoked).To(Equal([]string{"user-1:sess-1"}))
			c := findCookie(rec, internal.DefaultCookieName)
			Expect(c).NotTo(BeNil())
			Expect(c.MaxAge).To(BeNumerically("<", 0))
		})

		It("succeeds without a cookie", func() {
			rec := httptest.NewRecorder()
			handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(stub.revoked).To(BeEmpty())
		})

		It("reads bearer tokens too", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer user-1:sess-9")
			rec := httptest.NewRecorder()
			handler.Logout(rec, req)
			Expect(stub.revoked).To(Equal([]string{"user-1:sess-9"}))
		})
	})

	Describe("Me and LogoutEverywhere", func() {
		It("needs a principal", func() {
			rec := httptest.NewRecorder()
			handler.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns the principal without its session id", func() {
			p := &user.Principal{UserID: "user-1", Email: "ana@example.com", SessionID: "sess-1"}
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req = req.WithContext(user.WithPrincipal(req.Context(), p))
			rec := httptest.NewRecorder()
			handler.Me(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"id":"user-1"`))
			Expect(rec.Body.String()).NotTo(ContainSubstring("sess-1"))
		})

		It("revokes every session of the caller", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
			req = req.WithContext(user.WithPrincipal(req.Context(), &user.Principal{UserID: "user-1"}))
			rec := httptest.NewRecorder()
			handler.LogoutEverywhere(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(stub.revokedAll).To(Equal("user-1"))
			Expect(rec.Body.String()).To(ContainSubstring(`"revoked":3`))
		})
	})
})
