package cache

import (
	"fmt"
	"strings"
)

// Key identifies a cache entry. Segments are compared exactly; a key matches
// a prefix when its leading segments equal the prefix.
type Key []string

// NewKey builds a key, formatting non-string parts with fmt.
func NewKey(parts ...any) Key {
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			k = append(k, v)
		case fmt.Stringer:
			k = append(k, v.String())
		default:
			k = append(k, fmt.Sprint(v))
		}
	}
	return k
}

// Append returns a new key with parts added.
func (k Key) Append(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, NewKey(parts...)...)
}

// HasPrefix reports whether k starts with prefix. An empty prefix matches
// every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) id() string {
	return strings.Join(k, "\x00")
}

func (k Key) clone() Key {
	return append(Key(nil), k...)
}
