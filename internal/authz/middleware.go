package authz

import (
	"context"
	"net/http"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/transport"
	"github.com/frahmantamala/dashboard-access/internal/user"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	"github.com/go-chi/chi"
)

type SessionValidator interface {
	Validate(ctx context.Context, raw string) (*user.Principal, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, p *user.Principal, reqs ...Requirement) error
}

// Middleware guards routes. RequireAuth must run before any Require.
type Middleware struct {
	*transport.BaseHandler
	authorizer Authorizer
	sessions   SessionValidator
	tokenFrom  func(r *http.Request) string
}

func NewMiddleware(base *transport.BaseHandler, authorizer Authorizer, sessions SessionValidator, tokenFrom func(r *http.Request) string) *Middleware {
	return &Middleware{
		BaseHandler: base,
		authorizer:  authorizer,
		sessions:    sessions,
		tokenFrom:   tokenFrom,
	}
}

// RequireAuth resolves the session into a principal and puts it, the actor id and a
// user-scoped logger on the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.sessions.Validate(r.Context(), m.tokenFrom(r))
		if err != nil {
			m.WriteAppError(w, r, err)
			return
		}
		if principal == nil {
			m.WriteAppError(w, r, internal.ErrUnauthenticated)
			return
		}

		ctx := user.WithPrincipal(r.Context(), principal)
		ctx = internal.ContextWithActorID(ctx, principal.UserID)
		ctx = logger.With(ctx, "userID", principal.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) Require(reqs ...Requirement) func(http.Handler) http.Handler {
	return m.require(func(*http.Request) []Requirement { return reqs })
}

// RequireTenantParam checks membership of the client named by a URL parameter.
func (m *Middleware) RequireTenantParam(param string) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request) []Requirement {
		return []Requirement{TenantMember(chi.URLParam(r, param))}
	})
}

func (m *Middleware) require(build func(r *http.Request) []Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := user.PrincipalFromContext(r.Context())
			if err := m.authorizer.Authorize(r.Context(), principal, build(r)...); err != nil {
				m.WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
