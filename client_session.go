package goTeam

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goTeam/api"
	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/internal/notify"
	"github.com/MrEthical07/goTeam/model"
)

// Init runs the startup protocol. It restores the persisted token and, if
// one exists, loads the profile it belongs to. The session always settles:
// IsLoading is false when Init returns.
//
// A 401 logs the user out and Init returns nil. Any other failure keeps the
// token and the authenticated flag and is returned to the caller.
func (c *Client) Init(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	defer c.store.SetLoading(false)

	found, err := c.store.Restore(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read persisted token")
		return fmt.Errorf("init: restore token: %w", err)
	}
	if !found {
		return nil
	}

	resp, err := c.api.Me(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			c.log.Error().Err(err).Msg("token invalid, logging out")
			if lerr := c.store.Logout(ctx); lerr != nil {
				c.log.Warn().Err(lerr).Msg("failed to clear persisted token")
			}
			return nil
		}
		c.log.Warn().Err(err).Str("kind", api.KindOf(err).String()).Msg("failed to fetch user (non-auth error)")
		return fmt.Errorf("init: fetch user: %w", err)
	}

	c.store.SetUser(resp.AuthUser())
	c.cache.Set(keyMe(), resp)
	ev := c.log.Info().Str("user_id", resp.User.ID)
	if exp, ok := c.TokenExpiresAt(); ok {
		ev = ev.Time("token_expires_at", exp)
	}
	ev.Msg("session restored")
	return nil
}

// Login exchanges credentials for a token, loads the profile and starts a
// fresh session. Data cached for a previous user is dropped.
func (c *Client) Login(ctx context.Context, login, password string) (*model.User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	resp, err := c.api.Login(ctx, login, password)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		return nil, c.fail(ctx, "login", "Login failed", err)
	}
	if err := c.store.SetToken(ctx, resp.Token); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist token")
	}

	me, err := c.api.Me(ctx)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		if lerr := c.store.Logout(ctx); lerr != nil {
			c.log.Warn().Err(lerr).Msg("failed to clear persisted token")
		}
		return nil, c.fail(ctx, "login", "Login failed", err)
	}

	user := me.AuthUser()
	c.cache.Remove(cache.Key{})
	if err := c.store.Login(ctx, resp.Token, user); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist token")
	}
	c.cache.Set(keyMe(), me)
	c.metrics.Inc(MetricLoginSuccess)
	c.log.Info().Str("user_id", user.ID).Msg("logged in")
	return user.Clone(), nil
}

// Register creates an account. It does not sign the new user in.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest, avatar *model.Upload) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.api.Register(ctx, req, avatar); err != nil {
		return c.fail(ctx, "register", "Registration failed", err)
	}
	c.notify(ctx, notify.LevelSuccess, "register", "Account created", "You can now sign in")
	return nil
}

// Logout revokes the token on the server, then clears the session and the
// cache. The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	var remote error
	if c.store.Token() != "" {
		remote = c.api.Logout(ctx)
		if remote != nil && !api.IsUnauthorized(remote) {
			c.log.Warn().Err(remote).Msg("server logout failed")
		}
	}
	c.cache.Remove(cache.Key{})
	err := c.store.Logout(ctx)
	c.metrics.Inc(MetricLogout)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user's profile from the cache, fetching
// it when stale.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if !c.store.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	resp, err := cache.Fetch(ctx, c.cache, keyMe(), c.policy(ResourceCurrentUser), c.api.Me)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return resp.AuthUser(), nil
}

// UpdateProfile saves the signed-in user's profile. On success the session
// user is replaced first, then the cached profile, which is also marked
// stale.
func (c *Client) UpdateProfile(ctx context.Context, req model.UpdateUserRequest, avatar *model.Upload) (*model.User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if !c.store.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	resp, err := c.api.UpdateMe(ctx, req, avatar)
	if err != nil {
		return nil, c.fail(ctx, "update_profile", "Profile not saved", err)
	}
	user := resp.AuthUser()
	c.store.SetUser(user)
	c.cache.Set(keyMe(), resp)
	c.cache.Invalidate(keyMe())
	if resp.User.ID != "" {
		c.cache.Invalidate(keyUser(resp.User.ID))
	}
	c.notify(ctx, notify.LevelSuccess, "update_profile", "Profile saved", "")
	return user, nil
}

// TokenTTL returns how long the session token stays valid, or zero when it
// has no expiry.
func (c *Client) TokenTTL(now time.Time) time.Duration {
	exp, ok := c.TokenExpiresAt()
	if !ok {
		return 0
	}
	if d := exp.Sub(now); d > 0 {
		return d
	}
	return 0
}
