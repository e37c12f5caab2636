package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL   = "http://localhost:8090"
	DefaultTimeout   = 30 * time.Second
	DefaultLoginPath = "/login"
	DefaultUserAgent = "goTeam-client"

	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 8 << 20
	tracerName       = "github.com/MrEthical07/goTeam/api"
)

var (
	ErrInvalidBaseURL = errors.New("api: invalid base url")
	ErrEmptyID        = errors.New("api: empty id")
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// string sends the request unauthenticated.
type TokenSource interface {
	BearerToken(ctx context.Context) string
}

// TokenFunc adapts a function to [TokenSource].
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) BearerToken(ctx context.Context) string { return f(ctx) }

// Navigator is the host's notion of the current location. The client uses it
// to send the user to the login entry point after a 401.
type Navigator interface {
	Location() string
	Redirect(path string)
}

// ResponseInfo describes one finished call.
type ResponseInfo struct {
	Op       string
	Method   string
	Route    string
	Status   int
	Duration time.Duration
	Err      error
}

// Options configures a [Client].
type Options struct {
	// BaseURL is the server root. Absolute URLs get "/api/v1" appended;
	// paths starting with "/" get "/v1".
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client

	Tokens TokenSource
	// OnUnauthorized runs synchronously on every 401 before the call returns.
	OnUnauthorized func(ctx context.Context)
	Navigator      Navigator
	LoginPath      string

	// OnResponse observes every call. It must not block.
	OnResponse     func(ResponseInfo)
	Logger         *zerolog.Logger
	TracerProvider trace.TracerProvider
}

// Client is the single request pipeline to the REST backend.
type Client struct {
	base      string
	timeout   time.Duration
	userAgent string
	loginPath string
	http      *http.Client
	tokens    TokenSource
	onUnauth  func(context.Context)
	nav       Navigator
	onResp    func(ResponseInfo)
	log       zerolog.Logger
	tracer    trace.Tracer
}

// ResolveBaseURL applies the versioning rule to a configured server root.
func ResolveBaseURL(base string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasPrefix(base, "/") {
		return base + "/v1", nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}
	return base + "/api/v1", nil
}

// New creates a [Client].
func New(opts Options) (*Client, error) {
	base, err := ResolveBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:      base,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		loginPath: opts.LoginPath,
		http:      opts.HTTPClient,
		tokens:    opts.Tokens,
		onUnauth:  opts.OnUnauthorized,
		nav:       opts.Navigator,
		onResp:    opts.OnResponse,
		log:       zerolog.Nop(),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.loginPath == "" {
		c.loginPath = DefaultLoginPath
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.tokens == nil {
		c.tokens = TokenFunc(func(context.Context) string { return "" })
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	c.log = c.log.With().Str("component", "api").Logger()
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(tracerName)
	return c, nil
}

// BaseURL returns the resolved, versioned base URL.
func (c *Client) BaseURL() string { return c.base }

type request struct {
	op     string
	method string
	route  string
	path   string
	query  url.Values
	json   any
	form   *form
}

func (r request) body() (io.Reader, string, error) {
	switch {
	case r.form != nil:
		return r.form.encode()
	case r.json != nil:
		raw, err := json.Marshal(r.json)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	default:
		return nil, "", nil
	}
}

func (c *Client) logger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return c.log
}

// do runs one call through the pipeline and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, r request, out any) (err error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "api."+r.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("http.route", r.route),
			attribute.String("request.id", requestID),
		))
	defer span.End()

	log := c.logger(ctx).With().Str("request_id", requestID).Str("op", r.op).Logger()
	start := time.Now()
	status := 0
	defer func() {
		elapsed := time.Since(start)
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		log.Debug().
			Str("method", r.method).
			Str("path", r.path).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("api request")
		if c.onResp != nil {
			c.onResp(ResponseInfo{Op: r.op, Method: r.method, Route: r.route, Status: status, Duration: elapsed, Err: err})
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, contentType, err := r.body()
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", r.op, err)
	}

	target := c.base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("request failed")
		return &Error{Op: r.op, Method: r.method, Path: r.path, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Op: r.op, Method: r.method, Path: r.path, RequestID: requestID, Err: err}
	}

	switch {
	case status == http.StatusUnauthorized:
		c.handleUnauthorized(ctx, log)
	case status == http.StatusTooManyRequests:
		log.Warn().Str("path", r.path).Msg("rate limit exceeded")
	}
	if status < 200 || status > 299 {
		return statusError(r.op, r.method, r.path, requestID, status, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: r.op, Method: r.method, Path: r.path, Status: status, RequestID: requestID, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) handleUnauthorized(ctx context.Context, log zerolog.Logger) {
	log.Warn().Msg("unauthorized, clearing session")
	if c.onUnauth != nil {
		c.onUnauth(ctx)
	}
	if c.nav == nil {
		return
	}
	if strings.Contains(c.nav.Location(), c.loginPath) {
		return
	}
	c.nav.Redirect(c.loginPath)
}

func pathEscape(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", ErrEmptyID
	}
	return url.PathEscape(id), nil
}
