package goTeam

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/internal/debounce"
	"github.com/MrEthical07/goTeam/model"
)

func (c *Client) searchable(query string) bool {
	return utf8.RuneCountInString(query) >= c.config.Search.MinQueryLength
}

// SearchUsers finds users by name or email. Queries shorter than
// Config.Search.MinQueryLength fail with ErrQueryTooShort without a request.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.UserSearchResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if !c.searchable(query) {
		return nil, ErrQueryTooShort
	}
	users, err := cache.Fetch(ctx, c.cache, keyUserSearch(query), c.policy(ResourceUserSearch), func(ctx context.Context) ([]model.UserSearchResult, error) {
		return c.api.SearchUsers(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return model.CloneAll(users, model.UserSearchResult.Clone), nil
}

// UserSearch turns keystrokes into debounced user searches.
type UserSearch struct {
	run func(string)
	d   *debounce.Debouncer[string]
}

// NewUserSearch returns a search box bound to fn. Input settles for
// Config.Search.Debounce before a search runs; fn then receives the query
// and its results. A settled query that is too short yields no results and
// no request. fn runs on a timer goroutine, or on the caller's goroutine
// when debouncing is disabled.
func (c *Client) NewUserSearch(ctx context.Context, fn func(query string, users []model.UserSearchResult, err error)) *UserSearch {
	s := &UserSearch{run: func(q string) {
		if ctx.Err() != nil {
			return
		}
		q = strings.TrimSpace(q)
		if !c.searchable(q) {
			fn(q, nil, nil)
			return
		}
		users, err := c.SearchUsers(ctx, q)
		fn(q, users, err)
	}}
	if c.config.Search.Debounce > 0 {
		s.d = debounce.New(c.config.Search.Debounce, s.run)
	}
	return s
}

// Type records the current input.
func (s *UserSearch) Type(query string) {
	if s.d == nil {
		s.run(query)
		return
	}
	s.d.Push(query)
}

// Submit runs the pending search now.
func (s *UserSearch) Submit() {
	if s.d != nil {
		s.d.Flush()
	}
}

// Close drops any pending search.
func (s *UserSearch) Close() {
	if s.d != nil {
		s.d.Stop()
	}
}

// UserByID returns another user's profile.
func (c *Client) UserByID(ctx context.Context, id string) (*model.User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	resp, err := cache.Fetch(ctx, c.cache, keyUser(id), c.policy(ResourceUser), func(ctx context.Context) (model.UserResponse, error) {
		return c.api.User(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return resp.AuthUser(), nil
}

// Roles returns the role catalog.
func (c *Client) Roles(ctx context.Context) ([]model.Role, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	roles, err := cache.Fetch(ctx, c.cache, keyRoles(), c.policy(ResourceCatalog), c.api.Roles)
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	return model.CloneAll(roles, model.Role.Clone), nil
}

// Permissions returns the permission catalog.
func (c *Client) Permissions(ctx context.Context) ([]model.Permission, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	perms, err := cache.Fetch(ctx, c.cache, keyPermissions(), c.policy(ResourceCatalog), c.api.Permissions)
	if err != nil {
		return nil, fmt.Errorf("permissions: %w", err)
	}
	return slices.Clone(perms), nil
}

// CreateRole adds a role and marks the role catalog stale.
func (c *Client) CreateRole(ctx context.Context, req model.CreateRoleRequest) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.api.CreateRole(ctx, req); err != nil {
		return c.fail(ctx, "create_role", "Role not created", err)
	}
	c.cache.Invalidate(keyRoles())
	return nil
}
