package goTeam

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goTeam/api"
	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/guard"
	"github.com/MrEthical07/goTeam/internal/notify"
	"github.com/MrEthical07/goTeam/jwt"
	"github.com/MrEthical07/goTeam/session"
)

// Client is the team workspace core. Build one with [New].
type Client struct {
	config   Config
	log      zerolog.Logger
	store    *session.Store
	cache    *cache.Cache
	api      *api.Client
	notifier *notify.Dispatcher
	metrics  *Metrics
	tracer   trace.Tracer

	closed atomic.Bool
}

// Session returns the session store. Callers read it and subscribe to it;
// mutations go through the client.
func (c *Client) Session() *session.Store { return c.store }

// Cache returns the remote data cache.
func (c *Client) Cache() *cache.Cache { return c.cache }

// API returns the underlying HTTP pipeline.
func (c *Client) API() *api.Client { return c.api }

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() Config { return cloneConfig(c.config) }

// GuardPaths returns the login, home and forbidden routes from
// Config.Session for use with the guard package.
func (c *Client) GuardPaths() guard.Paths {
	return guard.Paths{
		Login:     c.config.Session.LoginPath,
		Home:      c.config.Session.HomePath,
		Forbidden: c.config.Session.ForbiddenPath,
	}
}

func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// NotificationsDropped reports notifications lost to a full buffer.
func (c *Client) NotificationsDropped() uint64 {
	return c.notifier.Dropped()
}

// NotificationsCollapsed reports notifications folded into an identical one
// raised within Config.Notify.CollapseWindow.
func (c *Client) NotificationsCollapsed() uint64 {
	return c.notifier.Collapsed()
}

// CacheEntries reports how many keys the cache currently holds.
func (c *Client) CacheEntries() int {
	return c.cache.Len()
}

// TokenExpiresAt returns the expiry embedded in the session token. The
// token is decoded, not verified. ok is false when there is no token or it
// carries no expiry.
func (c *Client) TokenExpiresAt() (at time.Time, ok bool) {
	token := c.store.Token()
	if token == "" {
		return time.Time{}, false
	}
	info, err := jwt.Inspect(token)
	if err != nil || !info.HasExpiry() {
		return time.Time{}, false
	}
	return info.ExpiresAt, true
}

// Close stops background work: polling, garbage collection and the
// notification dispatcher. Pending notifications are delivered first.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.cache.Close()
	c.notifier.Close()
}

func (c *Client) ready() error {
	if c == nil || c.api == nil {
		return ErrClientNotReady
	}
	if c.closed.Load() {
		return ErrClientClosed
	}
	return nil
}

// userID returns the id of the loaded user.
func (c *Client) userID() (string, error) {
	if !c.store.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	id := c.store.UserID()
	if id == "" {
		return "", ErrUserNotLoaded
	}
	return id, nil
}

func (c *Client) policy(r Resource) cache.Policy {
	return c.config.policy(r)
}

func (c *Client) onUnauthorized(ctx context.Context) {
	c.metrics.Inc(MetricUnauthorized)
	if err := c.store.Logout(ctx); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear persisted token")
	}
}

func (c *Client) observeResponse(info api.ResponseInfo) {
	if info.Err == nil {
		c.metrics.Inc(MetricRequestSuccess)
	} else {
		c.metrics.Inc(MetricRequestFailure)
	}
	if api.IsRateLimited(info.Err) {
		c.metrics.Inc(MetricRateLimited)
	}
	c.metrics.Observe(MetricRequestLatency, info.Duration)
}

// notify raises a user-visible notification.
func (c *Client) notify(ctx context.Context, level notify.Level, op, title, message string) {
	if c.notifier == nil {
		return
	}
	c.metrics.Inc(MetricNotificationSent)
	c.notifier.Notify(ctx, notify.Notification{Level: level, Op: op, Title: title, Message: message})
}

// fail reports a failed mutation to the user and wraps err with op.
func (c *Client) fail(ctx context.Context, op, title string, err error) error {
	c.notify(ctx, notify.LevelError, op, title, api.UserMessage(err))
	return fmt.Errorf("%s: %w", op, err)
}
