package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goTeam/permission"
	"github.com/MrEthical07/goTeam/session"
)

// Default redirect targets.
const (
	DefaultLoginPath     = "/login"
	DefaultHomePath      = "/"
	DefaultForbiddenPath = "/403"

	// FromParam carries the originally requested location to the login page.
	FromParam = "from"
)

// Session is the read side of the session store consumed by the guards.
// *session.Store satisfies it.
type Session interface {
	State() session.State
	IsAdmin() bool
	HasPermission(name string) bool
	HasAnyPermission(names ...string) bool
	HasAllPermissions(names ...string) bool
}

// Paths holds the redirect targets used by the guards. Zero fields fall back
// to the defaults.
type Paths struct {
	Login     string
	Home      string
	Forbidden string
}

func (p Paths) withDefaults() Paths {
	if p.Login == "" {
		p.Login = DefaultLoginPath
	}
	if p.Home == "" {
		p.Home = DefaultHomePath
	}
	if p.Forbidden == "" {
		p.Forbidden = DefaultForbiddenPath
	}
	return p
}

type stateContextKey struct{}

// StateFromContext returns the session snapshot a guard attached to ctx.
func StateFromContext(ctx context.Context) (session.State, bool) {
	st, ok := ctx.Value(stateContextKey{}).(session.State)
	return st, ok
}

// Protected lets authenticated sessions through and sends everyone else to
// the login page with the requested location in the from parameter.
func Protected(s Session, paths Paths) func(http.Handler) http.Handler {
	paths = paths.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := settled(w, s)
			if !ok {
				return
			}
			if !st.IsAuthenticated {
				redirect(w, r, loginWithFrom(paths.Login, r))
				return
			}
			next.ServeHTTP(w, withState(r, st))
		})
	}
}

// Guest lets unauthenticated sessions through and sends signed-in users home.
func Guest(s Session, paths Paths) func(http.Handler) http.Handler {
	paths = paths.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := settled(w, s)
			if !ok {
				return
			}
			if st.IsAuthenticated {
				redirect(w, r, paths.Home)
				return
			}
			next.ServeHTTP(w, withState(r, st))
		})
	}
}

// Admin requires an authenticated session whose user is an admin or holds
// process_roles. Unauthenticated sessions go to the login page, others to the
// forbidden page.
func Admin(s Session, paths Paths) func(http.Handler) http.Handler {
	paths = paths.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := settled(w, s)
			if !ok {
				return
			}
			if !st.IsAuthenticated {
				redirect(w, r, paths.Login)
				return
			}
			if !s.IsAdmin() && !s.HasPermission(string(permission.ProcessRoles)) {
				redirect(w, r, paths.Forbidden)
				return
			}
			next.ServeHTTP(w, withState(r, st))
		})
	}
}

// RequirePermissions requires an authenticated session holding names under
// mode. With no names the check degrades to [Protected].
func RequirePermissions(s Session, paths Paths, mode permission.Mode, names ...string) func(http.Handler) http.Handler {
	paths = paths.withDefaults()
	names = append([]string(nil), names...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := settled(w, s)
			if !ok {
				return
			}
			if !st.IsAuthenticated {
				redirect(w, r, loginWithFrom(paths.Login, r))
				return
			}
			if len(names) > 0 && !allowed(s, mode, names) {
				redirect(w, r, paths.Forbidden)
				return
			}
			next.ServeHTTP(w, withState(r, st))
		})
	}
}

// ReturnTo reads the from parameter set by [Protected]. Anything that is not
// a local absolute path yields fallback.
func ReturnTo(r *http.Request, fallback string) string {
	from := r.URL.Query().Get(FromParam)
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return fallback
	}
	return from
}

func allowed(s Session, mode permission.Mode, names []string) bool {
	if mode == permission.ModeAll {
		return s.HasAllPermissions(names...)
	}
	return s.HasAnyPermission(names...)
}

func settled(w http.ResponseWriter, s Session) (session.State, bool) {
	if s == nil {
		return session.State{}, true
	}
	st := s.State()
	if st.IsLoading {
		w.Header().Set("Retry-After", "1")
		http.Error(w, "session loading", http.StatusServiceUnavailable)
		return st, false
	}
	return st, true
}

func withState(r *http.Request, st session.State) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), stateContextKey{}, st))
}

func loginWithFrom(login string, r *http.Request) string {
	return login + "?" + url.Values{FromParam: {r.URL.RequestURI()}}.Encode()
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusFound)
}
