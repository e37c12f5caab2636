package session

import (
	"context"
	"testing"

	"github.com/MrEthical07/goTeam/model"
)

func memberUser() *model.User {
	return &model.User{
		ID:       "u1",
		Username: "alice",
		Role: &model.Role{
			ID:          2,
			Name:        "member",
			Permissions: []model.Permission{{ID: 4, Name: "process_tasks"}},
		},
	}
}

func TestSetTokenDerivesAuthentication(t *testing.T) {
	store := NewStore(NewMemoryStorage(), Options{})
	ctx := context.Background()

	sequence := []string{"a", "", "b", "b", "", "", "c"}
	for i, token := range sequence {
		if err := store.SetToken(ctx, token); err != nil {
			t.Fatalf("step %d: set token: %v", i, err)
		}
		st := store.State()
		if st.IsAuthenticated != (token != "") {
			t.Fatalf("step %d: token %q authenticated=%v", i, token, st.IsAuthenticated)
		}
		if st.Token != token {
			t.Fatalf("step %d: expected token %q, got %q", i, token, st.Token)
		}
	}
}

func TestSetTokenPersistsOnlyToken(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, Options{})
	ctx := context.Background()

	if err := store.Login(ctx, "tok1", memberUser()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := string(storage.Raw()); got != `{"state":{"token":"tok1"},"version":0}` {
		t.Fatalf("unexpected persisted record %s", got)
	}

	if err := store.SetToken(ctx, ""); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	if len(storage.Raw()) != 0 {
		t.Fatalf("expected record purged, got %s", storage.Raw())
	}
}

func TestSetUserDoesNotAuthenticate(t *testing.T) {
	store := NewStore(nil, Options{})
	store.SetUser(memberUser())

	if store.IsAuthenticated() {
		t.Fatal("user without token must not authenticate")
	}
	if !store.HasPermission("process_tasks") {
		t.Fatal("permissions derive from the loaded user")
	}
}

func TestLoginLogout(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, Options{})
	ctx := context.Background()

	if !store.IsLoading() {
		t.Fatal("new store should be loading")
	}
	if err := store.Login(ctx, "tok1", memberUser()); err != nil {
		t.Fatalf("login: %v", err)
	}
	st := store.State()
	if !st.IsAuthenticated || st.IsLoading || st.User == nil || st.User.ID != "u1" {
		t.Fatalf("unexpected state after login: %+v", st)
	}

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	st = store.State()
	if st.IsAuthenticated || st.IsLoading || st.User != nil || st.Token != "" {
		t.Fatalf("unexpected state after logout: %+v", st)
	}
	if token, _ := storage.Load(ctx); token != "" {
		t.Fatalf("persisted token survived logout: %q", token)
	}
	if store.HasPermission("process_tasks") {
		t.Fatal("permissions must be cleared by logout")
	}
}

func TestPermissionQueriesWithoutUser(t *testing.T) {
	store := NewStore(nil, Options{})
	if store.HasPermission("x") || store.HasAnyPermission("x") || store.HasAllPermissions("x") {
		t.Fatal("no user loaded must grant nothing")
	}
	if store.IsAdmin() {
		t.Fatal("no user loaded must not be admin")
	}
	if perms := store.Permissions(); perms == nil || len(perms) != 0 {
		t.Fatalf("expected empty permissions, got %#v", perms)
	}
}

func TestHasAllPermissionsWithNoNames(t *testing.T) {
	store := NewStore(nil, Options{})
	if !store.HasAllPermissions() {
		t.Fatal("no names is vacuously held, even without a user")
	}
	if store.HasAnyPermission() {
		t.Fatal("no names can never match any")
	}

	store.SetUser(memberUser())
	if !store.HasAllPermissions() || !store.HasAllPermissions("process_tasks") {
		t.Fatal("member should hold the empty list and process_tasks")
	}
	if store.HasAllPermissions("process_tasks", "process_roles") {
		t.Fatal("member lacks process_roles")
	}
}

func TestIsAdminDualCheck(t *testing.T) {
	tests := []struct {
		name string
		role *model.Role
		want bool
	}{
		{name: "admin name arbitrary id", role: &model.Role{ID: 42, Name: "admin"}, want: true},
		{name: "sentinel id arbitrary name", role: &model.Role{ID: DefaultAdminRoleID, Name: "superuser"}, want: true},
		{name: "neither", role: &model.Role{ID: 7, Name: "member"}, want: false},
		{name: "no role", role: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(nil, Options{})
			store.SetUser(&model.User{ID: "u", Role: tt.role})
			if got := store.IsAdmin(); got != tt.want {
				t.Fatalf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRestoreSetsTokenOnly(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	if err := storage.Save(ctx, "persisted"); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	store := NewStore(storage, Options{})
	found, err := store.Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !found {
		t.Fatal("expected token found")
	}
	st := store.State()
	if st.Token != "persisted" || !st.IsAuthenticated || st.User != nil || !st.IsLoading {
		t.Fatalf("unexpected restored state: %+v", st)
	}
}

func TestStateIsACopy(t *testing.T) {
	store := NewStore(nil, Options{})
	store.SetUser(memberUser())

	st := store.State()
	st.User.Role.Permissions[0].Name = "tampered"

	if !store.HasPermission("process_tasks") {
		t.Fatal("mutating a snapshot must not reach the store")
	}
	if store.User().Role.Permissions[0].Name != "process_tasks" {
		t.Fatal("stored user changed through snapshot")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	store := NewStore(nil, Options{})
	var seen []bool
	unsubscribe := store.Subscribe(func(st State) {
		seen = append(seen, st.IsAuthenticated)
	})

	_ = store.SetToken(context.Background(), "t")
	_ = store.Logout(context.Background())
	unsubscribe()
	_ = store.SetToken(context.Background(), "again")

	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

func TestCustomAdminOptions(t *testing.T) {
	store := NewStore(nil, Options{AdminRoleName: "owner", AdminRoleID: 9})
	store.SetUser(&model.User{ID: "u", Role: &model.Role{ID: 1, Name: "admin"}})
	if store.IsAdmin() {
		t.Fatal("defaults must not apply when overridden")
	}
	store.SetUser(&model.User{ID: "u", Role: &model.Role{ID: 9, Name: "x"}})
	if !store.IsAdmin() {
		t.Fatal("custom admin id should match")
	}
}
