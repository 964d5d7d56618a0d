package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/authz"
	"github.com/platinummonkey/herald/pkg/events"
	"github.com/platinummonkey/herald/pkg/httputil"
	"github.com/platinummonkey/herald/pkg/observability"
	"github.com/platinummonkey/herald/pkg/signals"
)

const testSecret = "s3cret"

type recordingPublisher struct {
	mu        sync.Mutex
	published []signals.Signal
	ignored   signals.Name
}

func (p *recordingPublisher) Subscribed(name signals.Name) bool {
	return name != p.ignored
}

func (p *recordingPublisher) PublishAsync(ctx context.Context, sig signals.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, sig)
}

func (p *recordingPublisher) received() []signals.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]signals.Signal(nil), p.published...)
}

type stubResolver struct {
	principal *auth.Principal
	err       error
}

func (s stubResolver) ResolvePrincipal(ctx context.Context, r *http.Request) (*auth.Principal, error) {
	return s.principal, s.err
}

type stubAuthorization struct {
	result authz.Result
	err    error
}

func (s stubAuthorization) AuthorizeAll(ctx context.Context, principal *auth.Principal) (authz.Result, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	if deps.Stream == nil {
		deps.Stream = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "stream")
		})
	}
	if deps.Signals == nil {
		deps.Signals = &recordingPublisher{}
	}
	if deps.Resolver == nil {
		deps.Resolver = stubResolver{}
	}
	if deps.Authorization == nil {
		deps.Authorization = stubAuthorization{}
	}
	if deps.SignalSecret == "" {
		deps.SignalSecret = testSecret
	}
	deps.Logger = observability.NopLogger()
	return NewServer(deps)
}

func newSignalRequest(name, body, secret string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/signals/"+name, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if secret != "" {
		r.Header.Set(SignalSecretHeader, secret)
	}
	return r
}

func TestServer_EventsRoute(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stream", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestIngestSignal_Accepted(t *testing.T) {
	publisher := &recordingPublisher{}
	s := newTestServer(t, Dependencies{Signals: publisher})

	key := uuid.New()
	body := `{"entities":[{"key":"` + key.String() + `","id":1051,"createDate":"2024-05-01T10:00:00Z","updateDate":"2024-05-01T10:00:00Z"}]}`

	w := httptest.NewRecorder()
	s.ServeHTTP(w, newSignalRequest("ContentSaved", body, testSecret))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"signal":"ContentSaved","entities":1}`, w.Body.String())

	published := publisher.received()
	require.Len(t, published, 1)
	assert.Equal(t, signals.ContentSaved, published[0].Name)
	require.Len(t, published[0].Entities, 1)
	assert.Equal(t, key, published[0].Entities[0].Key())
}

func TestIngestSignal_Rejections(t *testing.T) {
	validBody := `{"entities":[{"key":"` + uuid.NewString() + `"}]}`

	tests := []struct {
		name   string
		signal string
		body   string
		secret string
		status int
	}{
		{"missing secret", "ContentSaved", validBody, "", http.StatusUnauthorized},
		{"wrong secret", "ContentSaved", validBody, "nope", http.StatusUnauthorized},
		{"unknown signal", "ContentPublished", validBody, testSecret, http.StatusNotFound},
		{"malformed body", "ContentSaved", `{`, testSecret, http.StatusBadRequest},
		{"missing entities", "ContentSaved", `{}`, testSecret, http.StatusBadRequest},
		{"entity without key", "ContentSaved", `{"entities":[{"id":4}]}`, testSecret, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &recordingPublisher{}
			s := newTestServer(t, Dependencies{Signals: publisher})

			w := httptest.NewRecorder()
			s.ServeHTTP(w, newSignalRequest(tt.signal, tt.body, tt.secret))

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, publisher.received())
		})
	}
}

func TestIngestSignal_NoSecretConfiguredRejectsAll(t *testing.T) {
	h := NewSignalHandlers(&recordingPublisher{}, "", nil)
	r := newSignalRequest("ContentSaved", `{"entities":[]}`, "")
	assert.False(t, h.authorized(r))
}

func TestIngestSignal_NoSubscribers(t *testing.T) {
	publisher := &recordingPublisher{ignored: signals.WebhookSaved}
	s := newTestServer(t, Dependencies{Signals: publisher})
	body := `{"entities":[{"key":"` + uuid.NewString() + `"}]}`

	w := httptest.NewRecorder()
	s.ServeHTTP(w, newSignalRequest(string(signals.WebhookSaved), body, testSecret))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no subscribers")
	assert.Empty(t, publisher.received())
}

func TestGetAuthorization(t *testing.T) {
	editor := &auth.Principal{Key: uuid.New(), Username: "editor", Approved: true}

	t.Run("anonymous", func(t *testing.T) {
		s := newTestServer(t, Dependencies{})
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/authorization", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		s := newTestServer(t, Dependencies{Resolver: stubResolver{err: auth.ErrInvalidCredentials}})
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/authorization", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("configuration error", func(t *testing.T) {
		s := newTestServer(t, Dependencies{
			Resolver:      stubResolver{principal: editor},
			Authorization: stubAuthorization{err: &authz.ConfigurationError{Category: events.CategoryWebhook}},
		})
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/authorization", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("allowed and denied", func(t *testing.T) {
		s := newTestServer(t, Dependencies{
			Resolver: stubResolver{principal: editor},
			Authorization: stubAuthorization{result: authz.Result{
				Allowed: []events.Category{events.CategoryDocument, events.CategoryCurrentUser},
				Denied:  []events.Category{events.CategoryUser},
			}},
		})
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/authorization", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, editor.Identity(), body["identity"])
		assert.Equal(t, []interface{}{"Document", "CurrentUser"}, body["allowed"])
		assert.Equal(t, []interface{}{"User"}, body["denied"])
	})
}

func TestServer_RecordsMetricsByRouteTemplate(t *testing.T) {
	metrics := observability.NewTestMetrics()
	s := newTestServer(t, Dependencies{Metrics: metrics})

	w := httptest.NewRecorder()
	s.ServeHTTP(w, newSignalRequest("ContentPublished", `{}`, testSecret))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/signals/{name}", "404"),
	))
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, Dependencies{})
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthRouter(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	metrics.ConnectionsActive.Set(3)

	router := NewHealthRouter(observability.NewHealthChecker(nil, nil, "test"), registry)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), observability.StatusHealthy)
		})
	}

	t.Run("/metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "herald_connections_active 3")
	})
}

func TestIngestSignal_PublicAccessEntryDecoded(t *testing.T) {
	publisher := &recordingPublisher{}
	s := newTestServer(t, Dependencies{Signals: publisher})

	body := `{"entities":[{"key":"` + uuid.NewString() + `","protectedNodeId":1051}]}`
	w := httptest.NewRecorder()
	s.ServeHTTP(w, newSignalRequest("PublicAccessEntrySaved", body, testSecret))
	require.Equal(t, http.StatusAccepted, w.Code)

	published := publisher.received()
	require.Len(t, published, 1)
	entry, ok := published[0].Entities[0].(signals.PublicAccessEntry)
	require.True(t, ok)
	assert.Equal(t, int64(1051), entry.ProtectedNode())
}

func TestServer_StreamRateLimited(t *testing.T) {
	s := newTestServer(t, Dependencies{StreamLimiter: httputil.NewRateLimiter(1, 0, time.Minute)})

	request := func() int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		r.RemoteAddr = "192.0.2.7:51234"
		w := httptest.NewRecorder()
		s.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, request())
	assert.Equal(t, http.StatusTooManyRequests, request())
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	assert.Nil(t, PrincipalFromContext(context.Background()))
}
