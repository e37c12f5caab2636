package permission

import (
	"testing"

	"github.com/MrEthical07/goTeam/model"
)

func perms(names ...string) []model.Permission {
	out := make([]model.Permission, 0, len(names))
	for i, n := range names {
		out = append(out, model.Permission{ID: int64(i + 1), Name: n})
	}
	return out
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name  string
		perms []model.Permission
		check string
		want  bool
	}{
		{name: "nil list", perms: nil, check: "x", want: false},
		{name: "empty list", perms: []model.Permission{}, check: "x", want: false},
		{name: "match", perms: perms("x"), check: "x", want: true},
		{name: "no match", perms: perms("y"), check: "x", want: false},
		{name: "case sensitive", perms: perms("X"), check: "x", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.perms, tt.check); got != tt.want {
				t.Fatalf("HasPermission(%v, %q) = %v, want %v", tt.perms, tt.check, got, tt.want)
			}
		})
	}
}

func TestHasPermissionComparesByName(t *testing.T) {
	list := []model.Permission{{ID: 99, Name: "process_tasks"}}
	if !HasPermission(list, "process_tasks") {
		t.Fatal("expected name match regardless of id")
	}
}

func TestHasAnyPermission(t *testing.T) {
	list := perms("a", "b")
	if !HasAnyPermission(list, []string{"z", "b"}) {
		t.Fatal("expected any to match b")
	}
	if HasAnyPermission(list, []string{"z", "y"}) {
		t.Fatal("expected any to fail without matches")
	}
	if HasAnyPermission(list, nil) {
		t.Fatal("expected any over no names to be false")
	}
	if HasAnyPermission(nil, []string{"a"}) {
		t.Fatal("expected any over empty list to be false")
	}
}

func TestHasAllPermissions(t *testing.T) {
	if HasAllPermissions(perms("x"), []string{"x", "y"}) {
		t.Fatal("expected all to fail when y is missing")
	}
	if !HasAllPermissions(perms("x", "y"), []string{"x", "y"}) {
		t.Fatal("expected all to pass")
	}
	if HasAllPermissions(nil, []string{}) {
		t.Fatal("expected empty permission list to be false")
	}
}

func TestCheckModes(t *testing.T) {
	list := perms("a")
	if !Check(list, ModeAny, "a", "b") {
		t.Fatal("any mode should pass")
	}
	if Check(list, ModeAll, "a", "b") {
		t.Fatal("all mode should fail")
	}
}

func TestNames(t *testing.T) {
	got := Names(perms("a", "b"))
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected names %v", got)
	}
	if got := Names(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestIsKnown(t *testing.T) {
	if !IsKnown("process_tasks") {
		t.Fatal("process_tasks should be known")
	}
	if IsKnown("launch_rockets") {
		t.Fatal("launch_rockets should not be known")
	}
}
