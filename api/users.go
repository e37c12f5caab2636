package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goTeam/model"
)

// Me returns the caller's profile.
func (c *Client) Me(ctx context.Context) (model.UserResponse, error) {
	var out model.UserResponse
	err := c.do(ctx, request{
		op:     "users.me",
		method: http.MethodGet,
		route:  "/users/me",
		path:   "/users/me",
	}, &out)
	return out, err
}

// UpdateMe updates the caller's profile and optionally its avatar.
func (c *Client) UpdateMe(ctx context.Context, req model.UpdateUserRequest, avatar *model.Upload) (model.UserResponse, error) {
	var out model.UserResponse
	err := c.do(ctx, request{
		op:     "users.update_me",
		method: http.MethodPut,
		route:  "/users/me",
		path:   "/users/me",
		form:   newForm().jsonField("data", req).file("file", avatar),
	}, &out)
	return out, err
}

// User returns another user's profile.
func (c *Client) User(ctx context.Context, userID string) (model.UserResponse, error) {
	var out model.UserResponse
	id, err := pathEscape(userID)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, request{
		op:     "users.get",
		method: http.MethodGet,
		route:  "/users/:id",
		path:   "/users/" + id,
	}, &out)
	return out, err
}

// SearchUsers looks users up by name or email.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.UserSearchResult, error) {
	var out model.UserSearchResponse
	err := c.do(ctx, request{
		op:     "users.search",
		method: http.MethodGet,
		route:  "/users/search",
		path:   "/users/search",
		query:  url.Values{"query": {query}},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Users == nil {
		out.Users = []model.UserSearchResult{}
	}
	return out.Users, nil
}

// Roles lists the system roles.
func (c *Client) Roles(ctx context.Context) ([]model.Role, error) {
	var out []model.Role
	err := c.do(ctx, request{
		op:     "roles.list",
		method: http.MethodGet,
		route:  "/roles",
		path:   "/roles",
	}, &out)
	return out, err
}

// CreateRole adds a system role.
func (c *Client) CreateRole(ctx context.Context, req model.CreateRoleRequest) error {
	return c.do(ctx, request{
		op:     "roles.create",
		method: http.MethodPost,
		route:  "/roles",
		path:   "/roles",
		json:   req,
	}, nil)
}

// Permissions lists the system permissions.
func (c *Client) Permissions(ctx context.Context) ([]model.Permission, error) {
	var out []model.Permission
	err := c.do(ctx, request{
		op:     "permissions.list",
		method: http.MethodGet,
		route:  "/permissions",
		path:   "/permissions",
	}, &out)
	return out, err
}
