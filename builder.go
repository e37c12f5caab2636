package goTeam

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goTeam/api"
	"github.com/MrEthical07/goTeam/cache"
	"github.com/MrEthical07/goTeam/internal/notify"
	"github.com/MrEthical07/goTeam/session"
)

const tracerName = "github.com/MrEthical07/goTeam"

// Builder assembles a [Client]. A Builder is single-use.
type Builder struct {
	config Config
	logger *zerolog.Logger

	storage    session.TokenStorage
	openStore  func(key string) session.TokenStorage
	navigator  api.Navigator
	sink       NotificationSink
	httpClient *http.Client
	tracer     trace.TracerProvider

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Config.HTTP.BaseURL.
func (b *Builder) WithBaseURL(base string) *Builder {
	b.config.HTTP.BaseURL = base
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithStorage sets where the session token is persisted. The default keeps
// it in memory.
func (b *Builder) WithStorage(storage session.TokenStorage) *Builder {
	b.storage = storage
	b.openStore = nil
	return b
}

// WithFileStorage persists the token in dir, in a file named after
// Config.Session.StorageKey. It replaces any earlier storage option.
func (b *Builder) WithFileStorage(dir string) *Builder {
	b.storage = nil
	b.openStore = func(key string) session.TokenStorage {
		return session.NewFileStorage(dir, key)
	}
	return b
}

// WithRedisStorage persists the token in Redis under
// prefix:Config.Session.StorageKey. It replaces any earlier storage option.
func (b *Builder) WithRedisStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *Builder {
	b.storage = nil
	b.openStore = func(key string) session.TokenStorage {
		return session.NewRedisStorage(client, prefix, key, ttl)
	}
	return b
}

// WithNavigator lets the client send the user to the login page after a
// 401.
func (b *Builder) WithNavigator(nav api.Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithNotificationSink sets the receiver of user-visible notifications.
func (b *Builder) WithNotificationSink(sink NotificationSink) *Builder {
	b.sink = sink
	return b
}

func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracer = tp
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the session store, the cache,
// the HTTP pipeline and the notification dispatcher. The returned client
// starts with the session loading; call [Client.Init] next.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}
	tp := b.tracer
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	c := &Client{
		config:  cfg,
		log:     logger,
		metrics: NewMetrics(cfg.Metrics),
		tracer:  tp.Tracer(tracerName),
	}

	// -------- SESSION --------
	storage := b.storage
	if b.openStore != nil {
		storage = b.openStore(cfg.Session.StorageKey)
	}
	c.store = session.NewStore(storage, session.Options{
		AdminRoleName: cfg.Session.AdminRoleName,
		AdminRoleID:   cfg.Session.AdminRoleID,
	})

	// -------- CACHE --------
	cacheLog := logger.With().Str("component", "cache").Logger()
	c.cache = cache.New(cache.Options{
		GCTime:      cfg.Cache.GCTime,
		GCInterval:  cfg.Cache.GCInterval,
		RetryDelay:  cfg.Cache.RetryDelay,
		ShouldRetry: retryable,
		OnEvent:     c.metrics.observeCache,
		Logger:      &cacheLog,
	})

	// -------- HTTP PIPELINE --------
	apiClient, err := api.New(api.Options{
		BaseURL:        cfg.HTTP.BaseURL,
		Timeout:        cfg.HTTP.Timeout,
		UserAgent:      cfg.HTTP.UserAgent,
		HTTPClient:     b.httpClient,
		Tokens:         c.store,
		OnUnauthorized: c.onUnauthorized,
		Navigator:      b.navigator,
		LoginPath:      cfg.Session.LoginPath,
		OnResponse:     c.observeResponse,
		Logger:         &logger,
		TracerProvider: tp,
	})
	if err != nil {
		c.cache.Close()
		return nil, err
	}
	c.api = apiClient

	// -------- NOTIFICATIONS --------
	sink := b.sink
	if sink == nil {
		sink = NewLogSink(logger.With().Str("component", "notify").Logger())
	}
	c.notifier = notify.NewDispatcher(notify.Config{
		Enabled:        cfg.Notify.Enabled,
		BufferSize:     cfg.Notify.BufferSize,
		DropIfFull:     cfg.Notify.DropIfFull,
		CollapseWindow: cfg.Notify.CollapseWindow,
	}, sink)

	b.built = true

	return c, nil
}

// retryable keeps read retries to failures a second attempt can fix.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return api.IsTransient(err) || api.IsServerFault(err)
}
