package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/MrEthical07/goTeam/internal/testbackend"
	"github.com/MrEthical07/goTeam/model"
)

type fakeNavigator struct {
	mu        sync.Mutex
	location  string
	redirects []string
}

func (n *fakeNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *fakeNavigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.location = path
}

type tokenBox struct {
	mu    sync.Mutex
	token string
}

func (b *tokenBox) BearerToken(context.Context) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func (b *tokenBox) set(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

type apiTest struct {
	backend      *testbackend.Backend
	client       *Client
	tokens       *tokenBox
	nav          *fakeNavigator
	unauthorized atomic.Int32
	logs         *bytes.Buffer
	alice        model.User
}

func newAPITest(t *testing.T, mutate func(*Options)) *apiTest {
	t.Helper()
	at := &apiTest{
		backend: testbackend.New(),
		tokens:  &tokenBox{},
		nav:     &fakeNavigator{location: "/tasks"},
		logs:    &bytes.Buffer{},
	}
	t.Cleanup(at.backend.Close)

	at.alice = at.backend.AddUser(model.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     &model.Role{ID: 2, Name: "member", Permissions: []model.Permission{{ID: 4, Name: "process_tasks"}}},
	}, "alice", "secret")

	logger := zerolog.New(at.logs)
	opts := Options{
		BaseURL:        at.backend.URL(),
		Tokens:         at.tokens,
		OnUnauthorized: func(context.Context) { at.unauthorized.Add(1) },
		Navigator:      at.nav,
		Logger:         &logger,
	}
	if mutate != nil {
		mutate(&opts)
	}
	client, err := New(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	at.client = client
	return at
}

func (at *apiTest) login(t *testing.T) {
	t.Helper()
	resp, err := at.client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	at.tokens.set(resp.Token)
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://localhost:8090", want: "http://localhost:8090/api/v1"},
		{in: "https://team.example.com/", want: "https://team.example.com/api/v1"},
		{in: "/api", want: "/api/v1"},
		{in: "", want: DefaultBaseURL + "/api/v1"},
		{in: "ftp://team.example.com", wantErr: true},
		{in: "team.example.com", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ResolveBaseURL(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidBaseURL) {
				t.Fatalf("%q: expected ErrInvalidBaseURL, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoginThenMeCarriesBearer(t *testing.T) {
	at := newAPITest(t, nil)
	at.login(t)

	me, err := at.client.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	user := me.AuthUser()
	if user.ID != "u1" || user.Role == nil || user.Role.Name != "member" {
		t.Fatalf("unexpected profile %+v", user)
	}

	auth := at.backend.LastHeader(http.MethodGet, "/users/me", "Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		t.Fatalf("expected bearer header, got %q", auth)
	}
	if _, err := uuid.Parse(at.backend.LastHeader(http.MethodGet, "/users/me", RequestIDHeader)); err != nil {
		t.Fatalf("expected uuid request id: %v", err)
	}
	if at.backend.LastHeader(http.MethodPost, "/auth/login", "Authorization") != "" {
		t.Fatal("login must go out without a bearer token")
	}
}

func TestUnauthorizedClearsSessionAndRedirects(t *testing.T) {
	at := newAPITest(t, nil)
	at.tokens.set("garbage")

	_, err := at.client.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if at.unauthorized.Load() != 1 {
		t.Fatalf("expected hook to run once, ran %d", at.unauthorized.Load())
	}
	if len(at.nav.redirects) != 1 || at.nav.redirects[0] != DefaultLoginPath {
		t.Fatalf("unexpected redirects %v", at.nav.redirects)
	}

	_, _ = at.client.Me(context.Background())
	if len(at.nav.redirects) != 1 {
		t.Fatalf("must not redirect again from the login page, got %v", at.nav.redirects)
	}
	if at.unauthorized.Load() != 2 {
		t.Fatalf("hook should still run on every 401, ran %d", at.unauthorized.Load())
	}
	if !strings.Contains(at.logs.String(), "unauthorized, clearing session") {
		t.Fatalf("expected 401 log line, got %s", at.logs.String())
	}
}

func TestRateLimitedLeavesSessionAlone(t *testing.T) {
	at := newAPITest(t, nil)
	at.login(t)
	at.backend.Fail(http.MethodGet, "/tasks/statuses", http.StatusTooManyRequests, gin.H{"error": "slow down"})

	_, err := at.client.TaskStatuses(context.Background())
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if at.unauthorized.Load() != 0 || len(at.nav.redirects) != 0 {
		t.Fatal("429 must not touch the session")
	}
	if !strings.Contains(at.logs.String(), "rate limit exceeded") {
		t.Fatalf("expected 429 log line, got %s", at.logs.String())
	}
}

func TestErrorClassificationAndMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     gin.H
		kind     Kind
		userText string
	}{
		{name: "bad request with error", status: 400, body: gin.H{"error": "title is required"}, kind: KindValidation, userText: "Bad request: title is required"},
		{name: "bad request with message", status: 400, body: gin.H{"message": "too long"}, kind: KindValidation, userText: "Bad request: too long"},
		{name: "forbidden", status: 403, body: gin.H{"error": "nope"}, kind: KindValidation, userText: "Access denied"},
		{name: "not found", status: 404, body: gin.H{}, kind: KindValidation, userText: "Resource not found"},
		{name: "conflict prefers error", status: 409, body: gin.H{"error": "taken", "message": "ignored"}, kind: KindValidation, userText: "taken"},
		{name: "conflict without text", status: 409, body: gin.H{}, kind: KindValidation, userText: GenericMessage},
		{name: "internal", status: 500, body: gin.H{"error": "db down"}, kind: KindServerFault, userText: "Internal server error"},
		{name: "bad gateway", status: 502, body: gin.H{}, kind: KindServerFault, userText: GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := newAPITest(t, nil)
			at.login(t)
			at.backend.Fail(http.MethodPost, "/tasks", tt.status, tt.body)

			_, err := at.client.CreateTask(context.Background(), model.CreateTaskRequest{Title: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.kind {
				t.Fatalf("kind = %v, want %v", got, tt.kind)
			}
			if got := UserMessage(err); got != tt.userText {
				t.Fatalf("user message = %q, want %q", got, tt.userText)
			}
			if StatusCode(err) != tt.status {
				t.Fatalf("status = %d, want %d", StatusCode(err), tt.status)
			}
			if at.unauthorized.Load() != 0 {
				t.Fatal("non-401 errors must not clear the session")
			}
		})
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	at := newAPITest(t, nil)
	at.backend.Server.Close()

	_, err := at.client.TaskStatuses(context.Background())
	if !IsTransient(err) {
		t.Fatalf("expected transient, got %v (%v)", KindOf(err), err)
	}
	if UserMessage(err) != GenericMessage {
		t.Fatalf("unexpected user message %q", UserMessage(err))
	}
	if UserMessage(errors.New("plain")) != UnknownMessage {
		t.Fatal("errors outside the pipeline should read as unknown")
	}
}

func TestTimeoutSurfacesAsTransient(t *testing.T) {
	at := newAPITest(t, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	at.login(t)
	release := at.backend.Hold(http.MethodGet, "/tasks/statuses")
	defer release()

	_, err := at.client.TaskStatuses(context.Background())
	if !IsTransient(err) {
		t.Fatalf("expected transient timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestSpansAndObserver(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	var seen []ResponseInfo
	var mu sync.Mutex

	at := newAPITest(t, func(o *Options) {
		o.TracerProvider = tp
		o.OnResponse = func(info ResponseInfo) {
			mu.Lock()
			seen = append(seen, info)
			mu.Unlock()
		}
	})
	at.login(t)
	if _, err := at.client.TaskStatuses(context.Background()); err != nil {
		t.Fatalf("statuses: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[1].Name() != "api.tasks.statuses" {
		t.Fatalf("unexpected span name %q", spans[1].Name())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[1].Route != "/tasks/statuses" || seen[1].Status != http.StatusOK {
		t.Fatalf("unexpected observations %+v", seen)
	}
}

func TestEmptyIDRejectedLocally(t *testing.T) {
	at := newAPITest(t, nil)
	if _, err := at.client.UserChats(context.Background(), " "); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}
