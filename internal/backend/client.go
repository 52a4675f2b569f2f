// Package backend is the HTTP client for the upstream users API. It owns
// the session cookies, the CSRF header and the refresh-and-retry policy;
// callers get normalized, decoded bodies and never touch net/http.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ric-center/planner/internal/normalize"
)

const csrfCookie = "csrftoken"

// Client talks to the upstream REST backend using cookie-based sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	refresh    singleflight.Group
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached if
// the given client has none, since the CSRF token lives in a cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}
	return c
}

// APIError carries a non-2xx upstream response: the status code and the
// parsed body, so callers can inspect field-level validation messages.
type APIError struct {
	Status int
	Body   any
}

func (e *APIError) Error() string {
	if m, ok := e.Body.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return fmt.Sprintf("upstream %d: %s", e.Status, msg)
		}
	}
	if s, ok := e.Body.(string); ok && s != "" {
		return fmt.Sprintf("upstream %d: %s", e.Status, s)
	}
	return fmt.Sprintf("upstream %d: %s", e.Status, http.StatusText(e.Status))
}

// Get issues a GET and returns the normalized decoded body.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (any, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do performs a request against the upstream. On 401 it attempts a single
// session refresh (collapsed across concurrent callers) and retries the
// original request once with a freshly read CSRF token; if the refresh
// fails the original 401 is returned. Non-2xx responses come back as
// *APIError holding the parsed body. Successful bodies are normalized.
func (c *Client) Do(ctx context.Context, method, path string, body any) (any, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, raw, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.Refresh(ctx) {
			resp, raw, err = c.send(ctx, method, path, payload)
			if err != nil {
				return nil, err
			}
		}
	}

	data := parseBody(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: data}
	}
	return normalize.Apply(data), nil
}

// send builds and executes one HTTP round-trip, attaching the CSRF token
// on mutating methods. The token is read at send time so retries after a
// refresh pick up the rotated cookie.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		if token := c.csrfToken(); token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, raw, nil
}

// Refresh posts to the refresh endpoint and reports success. Concurrent
// callers share one in-flight attempt and observe the same outcome.
func (c *Client) Refresh(ctx context.Context) bool {
	ok, _, _ := c.refresh.Do("refresh", func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users/refresh/", nil)
		if err != nil {
			return false, nil
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return false, nil
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
	})
	res, _ := ok.(bool)
	return res
}

// Login posts credentials and then fetches user-info. Login succeeds only
// if both calls do; the normalized user-info body is returned.
func (c *Client) Login(ctx context.Context, email, password string) (any, error) {
	if _, err := c.Post(ctx, "/api/users/login/", map[string]string{
		"email":    email,
		"password": password,
	}); err != nil {
		return nil, err
	}
	return c.Get(ctx, "/api/users/user-info/")
}

// Logout posts to the logout endpoint. Callers clear local session state
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Post(ctx, "/api/users/logout/", nil)
	return err
}

// csrfToken reads the csrftoken cookie from the jar.
func (c *Client) csrfToken() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, ck := range c.httpClient.Jar.Cookies(u) {
		if ck.Name == csrfCookie {
			return ck.Value
		}
	}
	return ""
}

// parseBody decodes a response body: nil for empty, JSON when possible,
// the raw text otherwise.
func parseBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
