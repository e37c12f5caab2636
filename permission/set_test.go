package permission

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/goTeam/model"
)

func TestSetKnownAndUnknownNames(t *testing.T) {
	s := NewSet(nil, perms("process_tasks", "server_added_permission", "process_tasks"))

	if s.Len() != 2 {
		t.Fatalf("expected 2 distinct names, got %d", s.Len())
	}
	if !s.Has("process_tasks") {
		t.Fatal("known name missing")
	}
	if !s.Has("server_added_permission") {
		t.Fatal("unknown name missing from fallback")
	}
	if s.Has("process_roles") {
		t.Fatal("unexpected grant of process_roles")
	}
	if !s.HasAny([]string{"process_roles", "server_added_permission"}) {
		t.Fatal("HasAny should match fallback name")
	}
	if s.HasAll([]string{"process_tasks", "process_roles"}) {
		t.Fatal("HasAll should fail")
	}
}

func TestSetZeroValue(t *testing.T) {
	var s Set
	if s.Has("x") || s.HasAny([]string{"x"}) || s.HasAll(nil) {
		t.Fatal("zero set must grant nothing")
	}
}

func TestRegistryRejectsDuplicatesAndFrozen(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("a"); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if _, err := r.Register("a"); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := r.Register(""); err == nil {
		t.Fatal("expected empty name error")
	}
	r.Freeze()
	if _, err := r.Register("b"); err == nil {
		t.Fatal("expected frozen error")
	}
	if name, ok := r.Name(0); !ok || name != "a" {
		t.Fatalf("expected bit 0 -> a, got %q %v", name, ok)
	}
}

func TestRegistryFull(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < MaxRegistered; i++ {
		if _, err := r.Register(fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("register p%d: %v", i, err)
		}
	}
	if _, err := r.Register("overflow"); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull, got %v", err)
	}
	s := NewSet(r, perms("p63", "overflow"))
	if !s.Has("p63") || !s.Has("overflow") || s.Len() != 2 {
		t.Fatalf("last bit or fallback lost: %+v", s)
	}
}

func TestDefaultRegistryHoldsKnown(t *testing.T) {
	r := DefaultRegistry()
	if r.Count() != len(Known()) {
		t.Fatalf("expected %d names, got %d", len(Known()), r.Count())
	}
}

// FuzzSetMatchesGate checks the registry-backed set agrees with the linear
// gate for arbitrary names.
func FuzzSetMatchesGate(f *testing.F) {
	f.Add("process_tasks", "process_tasks")
	f.Add("process_tasks", "process_roles")
	f.Add("custom", "custom")
	f.Add("", "")

	f.Fuzz(func(t *testing.T, granted, check string) {
		list := []model.Permission{{Name: granted}}
		s := NewSet(nil, list)
		want := HasPermission(list, check) && check != ""
		if got := s.Has(check); got != want {
			t.Fatalf("set.Has(%q) with %q = %v, gate = %v", check, granted, got, want)
		}
	})
}
