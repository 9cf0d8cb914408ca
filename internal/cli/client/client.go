package client

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

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/cli/auth"
	"github.com/coursehub-dev/coursehub/internal/cli/notify"
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second

	// LoginPath is where the user is sent when the session is rejected
	LoginPath = "/login"

	maxErrorBody = 1 << 20
)

// Notification texts for centrally handled failures
const (
	MsgSessionExpired = "Session expired. Please login again."
	MsgAccessDenied   = "Access denied. Insufficient permissions."
	MsgServerError    = "Server error. Please try again later."
	MsgNetworkError   = "Network error. Please check your connection."
)

// Options configures the transport shared by every backend call
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
}

// DefaultOptions returns the local backend endpoint with a 10s timeout and JSON headers
func DefaultOptions() Options {
	return Options{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		DefaultHeaders: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// Navigator receives the request to move the user to another screen
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

var nopNavigator = NavigatorFunc(func(string) {})

// Client represents an HTTP client for the course marketplace API
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	tokens     auth.TokenStore
	notifier   notify.Notifier
	navigator  Navigator
	logger     zerolog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithNotifier sets where centrally handled failures are reported
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithNavigator sets the handler for the redirect to the login screen
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithLogger sets the request logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new API client. Zero fields of opts fall back to DefaultOptions.
func New(opts Options, tokens auth.TokenStore, options ...Option) *Client {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.DefaultHeaders == nil {
		opts.DefaultHeaders = defaults.DefaultHeaders
	}

	headers := make(http.Header, len(opts.DefaultHeaders))
	for k, v := range opts.DefaultHeaders {
		headers.Set(k, v)
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		headers: headers,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		tokens:    tokens,
		notifier:  notify.Nop,
		navigator: nopNavigator,
		logger:    zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// BaseURL returns the API root every path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get sends a GET with optional query parameters and decodes the payload into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the payload into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the payload into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete sends a DELETE and decodes the payload into out
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs one request through both interceptors. On success the response
// payload is decoded into out (when out is non-nil and the body is not empty);
// every failure is returned after its central side effects have run.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.intercept(&TransportError{Method: method, URL: req.URL.Redacted(), Err: err})
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.intercept(newHTTPError(method, path, resp))
	}

	return decodePayload(resp.Body, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// authorize is the outbound interceptor: attach the persisted token, if any
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Load()
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			c.logger.Warn().Err(err).Msg("Failed to read auth token, sending request anonymously")
		}
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// intercept is the inbound interceptor for failures. It performs the fixed
// side effect for the failure class and always hands err back.
func (c *Client) intercept(err error) error {
	switch KindOf(err) {
	case KindAuth:
		if c.tokens != nil {
			if delErr := c.tokens.Delete(); delErr != nil {
				c.logger.Error().Err(delErr).Msg("Failed to delete rejected auth token")
			}
		}
		c.navigator.Navigate(LoginPath)
		notify.Error(c.notifier, MsgSessionExpired)
	case KindAuthorization:
		notify.Error(c.notifier, MsgAccessDenied)
	case KindServer:
		notify.Error(c.notifier, MsgServerError)
	case KindTransport:
		if !isCanceled(err) {
			notify.Error(c.notifier, MsgNetworkError)
		}
	}

	c.logger.Debug().Err(err).Str("kind", KindOf(err).String()).Msg("API request failed")
	return err
}

func newHTTPError(method, path string, resp *http.Response) *HTTPError {
	httpErr := &HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		httpErr.Message = fmt.Sprintf("failed to read body: %v", readErr)
		return httpErr
	}
	httpErr.Body = body

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		httpErr.Detail = apiErr.Error
		httpErr.Message = apiErr.Error
		return httpErr
	}

	if msg := strings.TrimSpace(string(body)); msg != "" {
		httpErr.Message = msg
	} else {
		httpErr.Message = http.StatusText(resp.StatusCode)
	}
	return httpErr
}

func decodePayload(body io.Reader, out any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
