package permission

import "github.com/MrEthical07/goTeam/model"

// HasPermission reports whether name appears in perms. An empty or nil list
// never grants anything.
func HasPermission(perms []model.Permission, name string) bool {
	if len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if p.Name == name {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of names appears in perms.
func HasAnyPermission(perms []model.Permission, names []string) bool {
	if len(perms) == 0 {
		return false
	}
	for _, name := range names {
		if HasPermission(perms, name) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every one of names appears in perms.
// An empty perms list is false even when names is empty.
func HasAllPermissions(perms []model.Permission, names []string) bool {
	if len(perms) == 0 {
		return false
	}
	for _, name := range names {
		if !HasPermission(perms, name) {
			return false
		}
	}
	return true
}

// Names returns the permission names of perms in order.
func Names(perms []model.Permission) []string {
	if len(perms) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Name)
	}
	return out
}

// Mode selects how a multi-name check is evaluated.
type Mode int

const (
	// ModeAny passes when at least one name is granted.
	ModeAny Mode = iota
	// ModeAll passes only when every name is granted.
	ModeAll
)

// Check evaluates names against perms using mode.
func Check(perms []model.Permission, mode Mode, names ...string) bool {
	if mode == ModeAll {
		return HasAllPermissions(perms, names)
	}
	return HasAnyPermission(perms, names)
}
