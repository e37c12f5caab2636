package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/goTeam/model"
)

// DefaultRoleID is sent with registrations that do not pick a role.
const DefaultRoleID int64 = 1

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, login, password string) (model.LoginResponse, error) {
	var out model.LoginResponse
	err := c.do(ctx, request{
		op:     "auth.login",
		method: http.MethodPost,
		route:  "/auth/login",
		path:   "/auth/login",
		json:   model.LoginRequest{Login: login, Password: password},
	}, &out)
	return out, err
}

// Register creates an account. Optional text fields are trimmed and omitted
// when blank.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest, avatar *model.Upload) error {
	data := model.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Description: strings.TrimSpace(req.Description),
		Gender:      strings.TrimSpace(req.Gender),
		Age:         req.Age,
		RoleID:      req.RoleID,
	}
	if data.RoleID == 0 {
		data.RoleID = DefaultRoleID
	}
	return c.do(ctx, request{
		op:     "auth.register",
		method: http.MethodPost,
		route:  "/auth/register",
		path:   "/auth/register",
		form:   newForm().jsonField("data", data).file("file", avatar),
	}, nil)
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{
		op:     "auth.logout",
		method: http.MethodPost,
		route:  "/auth/logout",
		path:   "/auth/logout",
	}, nil)
}
