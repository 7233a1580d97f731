package session

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated is returned by Guard.Require when the session is not
// authenticated.
var ErrUnauthenticated = errors.New("session: not authenticated")

// Checker is the part of a Store a Guard needs.
type Checker interface {
	State() State
	Check() State
}

// Decision is the outcome of a guard evaluation.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard gates protected commands and routes on the cached session state.
// The decision is local; no network call is made.
type Guard struct {
	checker   Checker
	loginPath string
}

// NewGuard creates a guard redirecting to loginPath.
func NewGuard(checker Checker, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{checker: checker, loginPath: loginPath}
}

// Decide checks the store once if it has not been checked yet and allows
// only the authenticated state.
func (g *Guard) Decide() Decision {
	state := g.checker.State()
	if state == StateUnknown {
		state = g.checker.Check()
	}
	if state == StateAuthenticated {
		return Decision{Allow: true}
	}
	return Decision{Redirect: g.loginPath}
}

// Require returns ErrUnauthenticated naming the login entry point when the
// guard would redirect.
func (g *Guard) Require() error {
	decision := g.Decide()
	if decision.Allow {
		return nil
	}
	return fmt.Errorf("%w: run %q first", ErrUnauthenticated, decision.Redirect)
}

// Middleware serves next only for authenticated sessions and redirects
// everything else to the login path.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide()
		if !decision.Allow {
			http.Redirect(w, r, decision.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
