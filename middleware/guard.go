package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/nav"
)

// IdentityResolver returns the identity of the request's session once its
// profile load has settled. nil means signed out.
type IdentityResolver func(r *http.Request) *domain.Identity

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// RequireSession renders the route for signed-in users only. Pages are
// redirected to the guard's auth path; /api routes get a 401 whose meta
// carries the same redirect target.
func RequireSession(resolve IdentityResolver, g nav.Guard, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.RequireSession(resolve(r))
			observeGuard("require_session", d)
			if d.Granted {
				next.ServeHTTP(w, r)
				return
			}
			deny(w, r, d, domain.ErrAuthRequired(), writeErr)
		})
	}
}

// GuestOnly renders the route only for visitors without a session. Signed-in
// pages are redirected home; /api routes get a 403 carrying the redirect.
func GuestOnly(resolve IdentityResolver, g nav.Guard, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.GuestOnly(resolve(r))
			observeGuard("guest_only", d)
			if d.Granted {
				next.ServeHTTP(w, r)
				return
			}
			deny(w, r, d, domain.ErrAlreadySignedIn(), writeErr)
		})
	}
}

// RequireAtLeast enforces role hierarchy: admin >= mentor >= student.
// Must run after RequireSession.
func RequireAtLeast(min domain.Role, resolve IdentityResolver, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who := resolve(r)
			if who == nil {
				writeErr(w, r, domain.ErrAuthRequired())
				return
			}
			role, ok := domain.ParseRole(string(who.Role))
			if !ok || domain.RoleRank(role) < domain.RoleRank(min) {
				writeErr(w, r, domain.ErrInsufficientRole(min))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, d nav.Decision, apiErr *domain.Error, writeErr WriteErrFunc) {
	if isAPI(r) {
		writeErr(w, r, domain.WithMeta(apiErr, map[string]string{
			"redirect": d.RedirectTo,
		}))
		return
	}
	http.Redirect(w, r, d.RedirectTo, http.StatusFound)
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
