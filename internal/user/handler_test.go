package user_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubUsers struct {
	created   user.CreateUserRequest
	deleteErr error
}

func (s *stubUsers) List(ctx context.Context) ([]*user.User, error) {
	return []*user.User{{ID: "u1", Name: "Ana", PasswordHash: "secret-hash"}}, nil
}

func (s *stubUsers) Get(ctx context.Context, id string) (*user.User, error) {
	return nil, internal.ErrUserNotFound
}

func (s *stubUsers) Create(ctx context.Context, req user.CreateUserRequest) (*user.User, error) {
	s.created = req
	return &user.User{ID: "u2", Name: req.Name, Email: req.Email}, nil
}

func (s *stubUsers) Update(ctx context.Context, id string, req user.UpdateUserRequest) (*user.User, error) {
	return nil, internal.ErrDuplicateName
}

func (s *stubUsers) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

var _ = Describe("User Handler", func() {
	var (
		stub   *stubUsers
		router chi.Router
	)

	BeforeEach(func() {
		stub = &stubUsers{}
		handler := user.NewHandler(transport.NewBaseHandler(logger.Discard()), stub)
		router = chi.NewRouter()
		router.Get("/users", handler.ListUsers)
		router.Post("/users", handler.CreateUser)
		router.Get("/users/{id}", handler.GetUser)
		router.Put("/users/{id}", handler.UpdateUser)
		router.Delete("/users/{id}", handler.DeleteUser)
	})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		return w
	}

	It("never serialises password hashes", func() {
		w := serve(http.MethodGet, "/users", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).NotTo(ContainSubstring("secret-hash"))
	})

	It("passes the client id through on create", func() {
		w := serve(http.MethodPost, "/users", `{"name":"Bo","email":"bo@example.com","password":"pw","client_id":"acme"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(stub.created.ClientID).To(HaveValue(Equal("acme")))
	})

	It("answers 404 and 409 from the service", func() {
		Expect(serve(http.MethodGet, "/users/x", "").Code).To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodPut, "/users/x", `{"name":"a","email":"a@b.co"}`).Code).To(Equal(http.StatusConflict))
	})

	It("answers 400 on self-deletion", func() {
		stub.deleteErr = internal.ErrSelfDeletion
		w := serve(http.MethodDelete, "/users/u1", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeSelfDeletion)))
	})
})
