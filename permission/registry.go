package permission

import (
	"errors"
	"sync"
)

// MaxRegistered is how many names fit in the bitmask behind a [Set].
const MaxRegistered = 64

var (
	ErrRegistryFrozen = errors.New("permission: registry frozen")
	ErrEmptyName      = errors.New("permission: empty name")
	ErrDuplicateName  = errors.New("permission: name already registered")
	ErrRegistryFull   = errors.New("permission: registry full")
)

// Registry assigns each permission name a bit in the mask of a [Set]. Bits
// are handed out in registration order, so a name's bit is its index.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	index  map[string]int
	frozen bool
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	for _, name := range known {
		if _, err := r.Register(string(name)); err != nil {
			panic("permission: default registry: " + err.Error())
		}
	}
	r.Freeze()
	return r
})

// DefaultRegistry returns the frozen registry of every [Known] name.
func DefaultRegistry() *Registry { return defaultRegistry() }

// Register appends name and returns its bit.
func (r *Registry) Register(name string) (int, error) {
	if name == "" {
		return -1, ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch _, dup := r.index[name]; {
	case r.frozen:
		return -1, ErrRegistryFrozen
	case dup:
		return -1, ErrDuplicateName
	case len(r.names) == MaxRegistered:
		return -1, ErrRegistryFull
	}
	bit := len(r.names)
	r.names = append(r.names, name)
	r.index[name] = bit
	return bit, nil
}

func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	bit, ok := r.index[name]
	r.mu.RUnlock()
	return bit, ok
}

func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit < 0 || bit >= len(r.names) {
		return "", false
	}
	return r.names[bit], true
}

// Freeze stops further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
