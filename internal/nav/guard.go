package nav

import "github.com/baechuer/tutorhub/services/web-bff/internal/domain"

// Decision is the outcome of a guard. Exactly one of Granted or a non-empty
// RedirectTo holds.
type Decision struct {
	Granted    bool
	RedirectTo string
}

func granted() Decision             { return Decision{Granted: true} }
func redirect(to string) Decision   { return Decision{RedirectTo: to} }
func (d Decision) Redirected() bool { return !d.Granted }

type Guard struct {
	// AuthPath is where visitors without a session are sent
	AuthPath string
	// HomePath is where signed-in users are sent away from guest-only pages
	HomePath string
}

func DefaultGuard() Guard {
	return Guard{AuthPath: "/auth", HomePath: "/"}
}

// RequireSession grants any non-nil identity and redirects everyone else to
// the authentication view.
func (g Guard) RequireSession(who *domain.Identity) Decision {
	if who == nil {
		return redirect(g.AuthPath)
	}
	return granted()
}

// GuestOnly is the inverse, used by the sign-in page.
func (g Guard) GuestOnly(who *domain.Identity) Decision {
	if who != nil {
		return redirect(g.HomePath)
	}
	return granted()
}
