package permission

import "github.com/MrEthical07/goTeam/model"

// Set is an immutable permission set derived from a permission list. Names
// registered in the registry live in a bitmask; anything else falls back to a
// string-keyed map so server-added permissions keep working.
type Set struct {
	registry *Registry
	mask     uint64
	extra    map[string]struct{}
	size     int
}

// NewSet builds a [Set] from perms using registry. A nil registry uses
// [DefaultRegistry].
func NewSet(registry *Registry, perms []model.Permission) Set {
	if registry == nil {
		registry = DefaultRegistry()
	}
	s := Set{registry: registry}
	for _, p := range perms {
		if p.Name == "" {
			continue
		}
		if bit, ok := registry.Bit(p.Name); ok {
			if s.mask&(1<<bit) == 0 {
				s.mask |= 1 << bit
				s.size++
			}
			continue
		}
		if s.extra == nil {
			s.extra = make(map[string]struct{})
		}
		if _, dup := s.extra[p.Name]; !dup {
			s.extra[p.Name] = struct{}{}
			s.size++
		}
	}
	return s
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	if s.size == 0 {
		return false
	}
	if bit, ok := s.registry.Bit(name); ok {
		return s.mask&(1<<bit) != 0
	}
	_, ok := s.extra[name]
	return ok
}

// HasAny reports whether any of names is in the set.
func (s Set) HasAny(names []string) bool {
	if s.size == 0 {
		return false
	}
	for _, name := range names {
		if s.Has(name) {
			return true
		}
	}
	return false
}

// HasAll reports whether all of names are in the set. An empty set is false.
func (s Set) HasAll(names []string) bool {
	if s.size == 0 {
		return false
	}
	for _, name := range names {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// Len returns the number of distinct names in the set.
func (s Set) Len() int { return s.size }
