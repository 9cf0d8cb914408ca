package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub-dev/coursehub/internal/cli/auth"
	"github.com/coursehub-dev/coursehub/internal/cli/notify"
)

// countingStore wraps a MemoryStore and counts deletes
type countingStore struct {
	*auth.MemoryStore
	mu      sync.Mutex
	deletes int
}

func newCountingStore(token string) *countingStore {
	s := &countingStore{MemoryStore: auth.NewMemoryStore()}
	if token != "" {
		s.MemoryStore.Save(token) //nolint:errcheck
	}
	return s
}

func (s *countingStore) Delete() error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.MemoryStore.Delete()
}

// recordingNavigator remembers every navigation request
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

type harness struct {
	client   *Client
	tokens   *countingStore
	notifier *notify.Recorder
	nav      *recordingNavigator
}

func newHarness(t *testing.T, baseURL, token string) *harness {
	t.Helper()
	h := &harness{
		tokens:   newCountingStore(token),
		notifier: notify.NewRecorder(),
		nav:      &recordingNavigator{},
	}
	opts := DefaultOptions()
	opts.BaseURL = baseURL
	h.client = New(opts, h.tokens, WithNotifier(h.notifier), WithNavigator(h.nav))
	return h
}

func statusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "http://localhost:8080/api", opts.BaseURL)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Equal(t, map[string]string{"Content-Type": "application/json"}, opts.DefaultHeaders)
}

func TestDo_AttachesBearerTokenAndDefaultHeaders(t *testing.T) {
	var gotAuth, gotContentType, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"}) //nolint:errcheck
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL+"/api/", "abc123")

	var out map[string]string
	err := h.client.Get(context.Background(), "/courses/public", url.Values{"page": {"0"}}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "/api/courses/public", gotPath)
	assert.Equal(t, "page=0", gotQuery)
	assert.Equal(t, "yes", out["ok"])
}

func TestDo_NoTokenSendsNoAuthorization(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL, "")
	require.NoError(t, h.client.Get(context.Background(), "/courses/statistics", nil, nil))
	assert.False(t, sawAuth)
}

func TestDo_SuccessUnwrapsPayload(t *testing.T) {
	srv := statusServer(t, http.StatusOK, `{"token":"t-1","user":{"id":7}}`)
	h := newHarness(t, srv.URL, "")

	var out struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	require.NoError(t, h.client.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.com"}, &out))
	assert.Equal(t, "t-1", out.Token)
	assert.Equal(t, float64(7), out.User["id"])
	assert.Empty(t, h.notifier.All())
}

func TestDo_EmptySuccessBody(t *testing.T) {
	srv := statusServer(t, http.StatusNoContent, "")
	h := newHarness(t, srv.URL, "")

	var out map[string]any
	require.NoError(t, h.client.Post(context.Background(), "/courses/c1/publish", nil, &out))
	assert.Nil(t, out)
}

func TestDo_SendsJSONBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newHarness(t, srv.URL, "tok")
	require.NoError(t, h.client.Put(context.Background(), "/quizzes/q1", map[string]any{"title": "Quiz 1"}, nil))
	assert.Equal(t, "Quiz 1", got["title"])
}

func TestDo_ResponseInterceptor(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantKind     Kind
		wantNotify   []string
		wantNavigate []string
		tokenDeleted bool
	}{
		{
			name:         "401 purges token and redirects",
			status:       http.StatusUnauthorized,
			body:         `{"error":"Invalid or expired token"}`,
			wantKind:     KindAuth,
			wantNotify:   []string{MsgSessionExpired},
			wantNavigate: []string{LoginPath},
			tokenDeleted: true,
		},
		{
			name:       "403 access denied",
			status:     http.StatusForbidden,
			body:       `{"error":"Admin access required"}`,
			wantKind:   KindAuthorization,
			wantNotify: []string{MsgAccessDenied},
		},
		{
			name:       "500 server error",
			status:     http.StatusInternalServerError,
			body:       `{"error":"boom"}`,
			wantKind:   KindServer,
			wantNotify: []string{MsgServerError},
		},
		{
			name:       "503 server error",
			status:     http.StatusServiceUnavailable,
			body:       ``,
			wantKind:   KindServer,
			wantNotify: []string{MsgServerError},
		},
		{
			name:     "400 left to the caller",
			status:   http.StatusBadRequest,
			body:     `{"error":"Course title is required"}`,
			wantKind: KindValidation,
		},
		{
			name:     "404 left to the caller",
			status:   http.StatusNotFound,
			body:     ``,
			wantKind: KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := statusServer(t, tt.status, tt.body)
			h := newHarness(t, srv.URL, "abc123")

			err := h.client.Get(context.Background(), "/courses/c1", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.True(t, IsStatus(err, tt.status))

			assert.Equal(t, tt.wantNotify, h.notifier.Messages(notify.LevelError))
			assert.Equal(t, tt.wantNavigate, h.nav.paths)

			_, loadErr := h.tokens.Load()
			if tt.tokenDeleted {
				assert.ErrorIs(t, loadErr, auth.ErrNoToken)
				assert.Equal(t, 1, h.tokens.deletes)
			} else {
				assert.NoError(t, loadErr)
				assert.Equal(t, 0, h.tokens.deletes)
			}
		})
	}
}

func TestDo_UnauthorizedFromAnyEndpoint(t *testing.T) {
	srv := statusServer(t, http.StatusUnauthorized, `{"error":"Unauthorized"}`)

	calls := map[string]func(c *Client) error{
		"get profile": func(c *Client) error { return c.Get(context.Background(), "/auth/profile", nil, nil) },
		"create course": func(c *Client) error {
			return c.Post(context.Background(), "/courses", map[string]string{"title": "x"}, nil)
		},
		"update quiz": func(c *Client) error { return c.Put(context.Background(), "/quizzes/q1", map[string]string{}, nil) },
		"enroll":      func(c *Client) error { return c.Post(context.Background(), "/courses/c1/enroll", nil, nil) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, srv.URL, "stale")
			require.Error(t, call(h.client))
			assert.Equal(t, 1, h.tokens.deletes, "token must be deleted exactly once")
			assert.Equal(t, []string{LoginPath}, h.nav.paths)
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	h := newHarness(t, baseURL, "abc123")
	err := h.client.Get(context.Background(), "/courses/public", nil, nil)
	require.Error(t, err)

	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, []string{MsgNetworkError}, h.notifier.Messages(notify.LevelError))
	assert.Empty(t, h.nav.paths)

	token, loadErr := h.tokens.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, "abc123", token)
}

func TestDo_TimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	h := newHarness(t, srv.URL, "")
	h.client = New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, h.tokens,
		WithNotifier(h.notifier), WithNavigator(h.nav))

	err := h.client.Get(context.Background(), "/courses/public", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, []string{MsgNetworkError}, h.notifier.Messages(notify.LevelError))
}

func TestDo_CanceledContextIsNotReported(t *testing.T) {
	srv := statusServer(t, http.StatusOK, `{}`)
	h := newHarness(t, srv.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.client.Get(ctx, "/courses/public", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, h.notifier.All())
}

func TestDo_DecodeFailure(t *testing.T) {
	srv := statusServer(t, http.StatusOK, `not json`)
	h := newHarness(t, srv.URL, "")

	var out map[string]any
	err := h.client.Get(context.Background(), "/courses/c1", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestErrorMessage(t *testing.T) {
	structured := &HTTPError{StatusCode: 401, Detail: "Invalid credentials", Message: "Invalid credentials"}
	raw := &HTTPError{StatusCode: 502, Message: "<html>bad gateway</html>"}
	transport := &TransportError{Method: "GET", URL: "http://x", Err: errors.New("dial tcp: refused")}

	assert.Equal(t, "Invalid credentials", ErrorMessage(structured, "Login failed"))
	assert.Equal(t, "Invalid credentials", ErrorMessage(wrap(structured), "Login failed"))
	assert.Equal(t, "Login failed", ErrorMessage(raw, "Login failed"))
	assert.Equal(t, "Login failed", ErrorMessage(transport, "Login failed"))
	assert.Equal(t, "Login failed", ErrorMessage(errors.New("other"), "Login failed"))
}

func TestHTTPError_MessageFallbacks(t *testing.T) {
	srv := statusServer(t, http.StatusBadRequest, `plain text problem`)
	h := newHarness(t, srv.URL, "")

	err := h.client.Get(context.Background(), "/courses/search", nil, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "plain text problem", httpErr.Message)
	assert.Empty(t, httpErr.Detail)
	assert.Equal(t, "HTTP 400: plain text problem", httpErr.Error())
}

func wrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "service: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
