package goTeam

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/MrEthical07/goTeam/api"
	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/session"
)

// Config holds every tunable of a [Client]. Start from [DefaultConfig] and
// override fields; zero values are not filled in.
type Config struct {
	HTTP    HTTPConfig
	Session SessionConfig
	Cache   CacheConfig
	Search  SearchConfig
	Chat    ChatConfig
	Notify  NotifyConfig
	Metrics MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig controls the request pipeline.
type HTTPConfig struct {
	// BaseURL is the server root: "http://host:port" (gets /api/v1) or a
	// path such as "/api" (gets /v1).
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the session store and redirects.
type SessionConfig struct {
	// StorageKey names the persisted token record.
	StorageKey    string
	AdminRoleName string
	AdminRoleID   int64
	LoginPath     string
	HomePath      string
	ForbiddenPath string
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig controls the remote data cache.
type CacheConfig struct {
	// DefaultStaleTime applies to resources missing from Policies.
	DefaultStaleTime time.Duration
	GCTime           time.Duration
	GCInterval       time.Duration
	// QueryRetry is the number of extra attempts for reads. Mutations are
	// never retried.
	QueryRetry int
	RetryDelay time.Duration
	// Policies overrides the freshness table per resource.
	Policies map[Resource]cache.Policy
}

/*
====================================
SEARCH / CHAT CONFIG
====================================
*/

// SearchConfig controls interactive searches.
type SearchConfig struct {
	Debounce       time.Duration
	MinQueryLength int
}

// ChatConfig controls message loading.
type ChatConfig struct {
	// MessageLimit bounds the polled message list.
	MessageLimit int
	// PageSize is the page length of [Client.LoadMessagePage].
	PageSize int
}

/*
====================================
NOTIFY / METRICS CONFIG
====================================
*/

// NotifyConfig controls delivery of user-visible notifications.
type NotifyConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// CollapseWindow folds repeats of the same message raised within it.
	CollapseWindow time.Duration
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			BaseURL:   api.DefaultBaseURL,
			Timeout:   api.DefaultTimeout,
			UserAgent: api.DefaultUserAgent,
		},
		Session: SessionConfig{
			StorageKey:    session.DefaultStorageKey,
			AdminRoleName: session.DefaultAdminRoleName,
			AdminRoleID:   session.DefaultAdminRoleID,
			LoginPath:     "/login",
			HomePath:      "/",
			ForbiddenPath: "/403",
		},
		Cache: CacheConfig{
			DefaultStaleTime: 30 * time.Second,
			GCTime:           cache.DefaultGCTime,
			GCInterval:       time.Minute,
			QueryRetry:       1,
			RetryDelay:       cache.DefaultRetryDelay,
			Policies:         defaultPolicies(),
		},
		Search: SearchConfig{
			Debounce:       300 * time.Millisecond,
			MinQueryLength: 2,
		},
		Chat: ChatConfig{
			MessageLimit: 50,
			PageSize:     30,
		},
		Notify: NotifyConfig{
			Enabled:        true,
			BufferSize:     64,
			DropIfFull:     true,
			CollapseWindow: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Cache.Policies = maps.Clone(cfg.Cache.Policies)
	return out
}

// policy returns the cache policy for r with the configured retry count.
func (c *Config) policy(r Resource) cache.Policy {
	p, ok := c.Cache.Policies[r]
	if !ok {
		p = cache.Policy{StaleTime: c.Cache.DefaultStaleTime}
	}
	p.Retry = c.Cache.QueryRetry
	return p
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field, wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// HTTP
	if _, err := api.ResolveBaseURL(c.HTTP.BaseURL); err != nil {
		return err
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP Timeout must be > 0")
	}

	// Session
	if strings.TrimSpace(c.Session.StorageKey) == "" {
		return errors.New("Session StorageKey must not be empty")
	}
	if c.Session.AdminRoleName == "" && c.Session.AdminRoleID == 0 {
		return errors.New("Session needs an AdminRoleName or an AdminRoleID")
	}
	for name, p := range map[string]string{
		"LoginPath":     c.Session.LoginPath,
		"HomePath":      c.Session.HomePath,
		"ForbiddenPath": c.Session.ForbiddenPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("Session %s must start with /", name)
		}
	}

	// Cache
	if c.Cache.DefaultStaleTime < 0 {
		return errors.New("Cache DefaultStaleTime must be >= 0")
	}
	if c.Cache.GCTime <= 0 {
		return errors.New("Cache GCTime must be > 0")
	}
	if c.Cache.GCInterval < 0 {
		return errors.New("Cache GCInterval must be >= 0")
	}
	if c.Cache.QueryRetry < 0 {
		return errors.New("Cache QueryRetry must be >= 0")
	}
	if c.Cache.RetryDelay < 0 {
		return errors.New("Cache RetryDelay must be >= 0")
	}
	for r, p := range c.Cache.Policies {
		if r >= resourceCount {
			return fmt.Errorf("Cache Policies has unknown resource %d", r)
		}
		if p.StaleTime < 0 || p.RefetchInterval < 0 {
			return fmt.Errorf("Cache policy %s must not be negative", r)
		}
		if p.RefetchInterval > 0 && p.RefetchInterval < 100*time.Millisecond {
			return fmt.Errorf("Cache policy %s RefetchInterval must be >= 100ms", r)
		}
	}

	// Search
	if c.Search.Debounce < 0 {
		return errors.New("Search Debounce must be >= 0")
	}
	if c.Search.MinQueryLength < 1 {
		return errors.New("Search MinQueryLength must be >= 1")
	}

	// Chat
	if c.Chat.MessageLimit <= 0 {
		return errors.New("Chat MessageLimit must be > 0")
	}
	if c.Chat.PageSize <= 0 {
		return errors.New("Chat PageSize must be > 0")
	}

	// Notify
	if c.Notify.Enabled && c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0 when Enabled")
	}
	if c.Notify.CollapseWindow < 0 {
		return errors.New("Notify CollapseWindow must be >= 0")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Enabled")
	}
	return nil
}
