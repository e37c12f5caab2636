package cache

import (
	"context"
	"fmt"
)

// Adapt wraps a typed fetch function as a [Fetcher].
func Adapt[T any](fetch func(context.Context) (T, error)) Fetcher {
	return func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}
}

// Fetch is [Cache.Query] for a typed fetch function.
func Fetch[T any](ctx context.Context, c *Cache, key Key, policy Policy, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	data, err := c.Query(ctx, key, policy, Adapt(fetch))
	if err != nil {
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, data)
	}
	return v, nil
}

// Lookup returns the typed data cached under key.
func Lookup[T any](c *Cache, key Key) (T, bool) {
	var zero T
	data, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// PatchOf builds a [Patch] for entries holding T. Entries of another type
// are skipped.
func PatchOf[T any](prefix Key, apply func(key Key, data T) (T, bool)) Patch {
	return Patch{
		Prefix: prefix,
		Apply: func(key Key, data any) (any, bool) {
			v, ok := data.(T)
			if !ok {
				return data, false
			}
			return apply(key, v)
		},
	}
}

// UpdateOf is [Cache.Update] for entries holding T.
func UpdateOf[T any](c *Cache, key Key, fn func(T) (T, bool)) bool {
	return c.Update(key, func(old any) (any, bool) {
		v, ok := old.(T)
		if !ok {
			return old, false
		}
		return fn(v)
	})
}
