package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

const (
	// APIRoot is the path segment every backend resource lives under
	APIRoot = "/api"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1 << 20
)

// Client represents an HTTP client for the CapitalHub API. Every backend call
// goes through Do (or Upload for multipart bodies).
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials session.CredentialSource
	policy      Policy
	metrics     *Metrics
	log         zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithCredentials sets where bearer credentials are looked up
func WithCredentials(src session.CredentialSource) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

// WithPolicy sets the policy consulted when the API denies a request
func WithPolicy(p Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithMetrics records request counts and latencies
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a new API client for the API origin baseURL. An empty baseURL
// keeps request URLs relative, for callers that sit behind a reverse proxy
// and supply their own transport.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.policy == nil {
		c.policy = LogPolicy(c.log)
	}

	return c
}

// SetPolicy replaces the denial policy. The auth context installs its own
// policy after it has been built around this client.
func (c *Client) SetPolicy(p Policy) {
	if p == nil {
		p = LogPolicy(c.log)
	}
	c.policy = p
}

// BaseURL returns the API origin requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NormalizePath prefixes p with the API root unless it already starts with
// that segment. Applying it twice gives the same result as applying it once.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p == APIRoot || strings.HasPrefix(p, APIRoot+"/") || strings.HasPrefix(p, APIRoot+"?") {
		return p
	}
	return APIRoot + p
}

// URL returns the absolute (or, with no base URL, relative) URL for p
func (c *Client) URL(p string) string {
	return c.baseURL + NormalizePath(p)
}

// Request describes one call to the API
type Request struct {
	Method string
	Path   string
	Body   any
	// RequiresAuth is decided at the call site, never inferred from Path
	RequiresAuth bool
}

// Do sends req and decodes a JSON response into out (which may be nil).
// Every failure is returned as *APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	path := NormalizePath(req.Path)

	var body io.Reader
	if req.Body != nil {
		jsonData, err := json.Marshal(req.Body)
		if err != nil {
			return &APIError{Message: "failed to encode request", Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Message: "failed to build request", Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.RequiresAuth {
		c.attachCredential(httpReq, path)
	}

	resp, err := c.send(httpReq, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(ctx, req, path, resp)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: NetworkErrorMessage, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "unexpected response from server", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

// Get sends an authenticated or anonymous GET
func (c *Client) Get(ctx context.Context, path string, auth bool, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, RequiresAuth: auth}, out)
}

// Post sends a JSON POST
func (c *Client) Post(ctx context.Context, path string, body any, auth bool, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, RequiresAuth: auth}, out)
}

// Put sends a JSON PUT
func (c *Client) Put(ctx context.Context, path string, body any, auth bool, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, RequiresAuth: auth}, out)
}

// Patch sends a JSON PATCH
func (c *Client) Patch(ctx context.Context, path string, body any, auth bool, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body, RequiresAuth: auth}, out)
}

// attachCredential sets the bearer header when a credential is available.
// Without one the request still goes out and the server decides.
func (c *Client) attachCredential(httpReq *http.Request, path string) {
	if c.credentials == nil {
		c.log.Warn().Str("path", path).Msg("Authentication required but no credential source configured")
		return
	}

	token, ok := c.credentials.Credential()
	if !ok {
		c.log.Warn().Str("path", path).Msg("Authentication required but no token stored")
		return
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
}

// send stamps a request ID, performs the round trip and records metrics
func (c *Client) send(httpReq *http.Request, path string) (*http.Response, error) {
	requestID := ulid.Make().String()
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.observe(httpReq.Method, 0, elapsed)
		c.log.Debug().Err(err).
			Str("method", httpReq.Method).
			Str("path", path).
			Str("request_id", requestID).
			Msg("Request failed")
		return nil, &APIError{Message: NetworkErrorMessage, Err: fmt.Errorf("failed to send request: %w", err)}
	}

	c.metrics.observe(httpReq.Method, resp.StatusCode, elapsed)
	c.log.Debug().
		Str("method", httpReq.Method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("Request completed")

	return resp, nil
}

// fail converts a non-2xx response into an *APIError and consults the policy
func (c *Client) fail(ctx context.Context, req Request, path string, resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: errorMessage(resp.Body, DefaultErrorMessage),
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", apiErr.Status).
		Str("message", apiErr.Message).
		Msg("API returned an error")

	if apiErr.AuthDenied() {
		c.policy.OnAuthDenied(ctx, req, apiErr)
	}

	return apiErr
}

// errorMessage extracts a human readable message from a JSON error body
func errorMessage(body io.Reader, fallback string) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return fallback
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fallback
	}

	switch {
	case payload.Message != "":
		return payload.Message
	case payload.Error != "":
		return payload.Error
	default:
		return fallback
	}
}
