package session

import (
	"context"
	"sync"

	"github.com/MrEthical07/goTeam/model"
	"github.com/MrEthical07/goTeam/permission"
)

// Admin role defaults. Either one marks a user as admin so that renaming the
// role does not silently revoke admin access.
const (
	DefaultAdminRoleName       = "admin"
	DefaultAdminRoleID   int64 = 1
)

// State is a point-in-time copy of the session.
type State struct {
	Token           string
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
}

// Options tunes a [Store].
type Options struct {
	AdminRoleName string
	AdminRoleID   int64
	Registry      *permission.Registry
}

// Store is the single writer of session state. All mutations go through its
// methods; readers receive copies.
type Store struct {
	storage TokenStorage
	opts    Options

	mu    sync.RWMutex
	state State
	perms permission.Set

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// NewStore creates a [Store] that persists its token through storage. A nil
// storage keeps the token in memory only. The store starts unauthenticated
// with IsLoading set until the startup protocol settles.
func NewStore(storage TokenStorage, opts Options) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if opts.AdminRoleName == "" {
		opts.AdminRoleName = DefaultAdminRoleName
	}
	if opts.AdminRoleID == 0 {
		opts.AdminRoleID = DefaultAdminRoleID
	}
	if opts.Registry == nil {
		opts.Registry = permission.DefaultRegistry()
	}
	return &Store{
		storage: storage,
		opts:    opts,
		state:   State{IsLoading: true},
		subs:    make(map[int]func(State)),
	}
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	out := s.state
	out.User = s.state.User.Clone()
	return out
}

// Token returns the current bearer token, or "" when absent.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// BearerToken returns the in-memory token for outgoing requests.
func (s *Store) BearerToken(context.Context) string {
	return s.Token()
}

// User returns a copy of the cached profile, or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.Clone()
}

// UserID returns the cached profile id, or "".
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return ""
	}
	return s.state.User.ID
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// IsLoading reports whether the startup protocol is still running.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsLoading
}

// SetToken stores token and recomputes IsAuthenticated. The in-memory state
// changes even when persisting fails; the persistence error is returned.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mutate(func(st *State) {
		st.Token = token
		st.IsAuthenticated = token != ""
	})
	return s.persist(ctx, token)
}

// SetUser replaces the cached profile. IsAuthenticated is unaffected.
func (s *Store) SetUser(user *model.User) {
	s.mutate(func(st *State) {
		st.User = user.Clone()
		st.IsAuthenticated = st.Token != ""
	})
}

// Login sets token and user together and settles loading.
func (s *Store) Login(ctx context.Context, token string, user *model.User) error {
	s.mutate(func(st *State) {
		st.Token = token
		st.User = user.Clone()
		st.IsAuthenticated = token != ""
		st.IsLoading = false
	})
	return s.persist(ctx, token)
}

// Logout clears token and user, settles loading, and purges the persisted
// token.
func (s *Store) Logout(ctx context.Context) error {
	s.mutate(func(st *State) {
		st.Token = ""
		st.User = nil
		st.IsAuthenticated = false
		st.IsLoading = false
	})
	return s.storage.Clear(ctx)
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mutate(func(st *State) {
		st.IsLoading = loading
	})
}

// Restore reads the persisted token into memory without re-writing it.
// It reports whether a token was found.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	token, err := s.storage.Load(ctx)
	if err != nil {
		return false, err
	}
	s.mutate(func(st *State) {
		st.Token = token
		st.IsAuthenticated = token != ""
	})
	return token != "", nil
}

// Permissions returns the permissions of the current user's role.
func (s *Store) Permissions() []model.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil || s.state.User.Role == nil {
		return []model.Permission{}
	}
	return append([]model.Permission(nil), s.state.User.Role.Permissions...)
}

// HasPermission reports whether the loaded user holds name. False when no
// user is loaded.
func (s *Store) HasPermission(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms.Has(name)
}

// HasAnyPermission reports whether the loaded user holds any of names.
func (s *Store) HasAnyPermission(names ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms.HasAny(names)
}

// HasAllPermissions reports whether the loaded user holds every one of names.
// With no names it is vacuously true, even before a user has loaded.
func (s *Store) HasAllPermissions(names ...string) bool {
	if len(names) == 0 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perms.HasAll(names)
}

// IsAdmin reports whether the user's role matches the admin role name or the
// admin role id.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.state.User
	if u == nil || u.Role == nil {
		return false
	}
	return u.Role.Name == s.opts.AdminRoleName || u.Role.ID == s.opts.AdminRoleID
}

// Subscribe registers fn to receive a copy of the state after every change.
// Callbacks run synchronously on the mutating goroutine, outside the store
// lock. The returned function unregisters fn.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) mutate(apply func(*State)) {
	s.mu.Lock()
	apply(&s.state)
	s.perms = permission.NewSet(s.opts.Registry, rolePermissions(s.state.User))
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) persist(ctx context.Context, token string) error {
	if token == "" {
		return s.storage.Clear(ctx)
	}
	return s.storage.Save(ctx, token)
}

func rolePermissions(u *model.User) []model.Permission {
	if u == nil || u.Role == nil {
		return nil
	}
	return u.Role.Permissions
}
