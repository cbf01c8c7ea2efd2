package gridapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
)

const headerRequestID = "X-Request-ID"

// TokenSource supplies bearer tokens for authenticated requests. The
// concrete implementation lives in internal/auth; the client only needs
// these three behaviors.
type TokenSource interface {
	// Token returns a currently valid access token, refreshing behind the
	// scenes when the stored one is near expiry.
	Token(ctx context.Context) (string, error)
	// ForceRefresh discards the current access token and obtains a new
	// one. Concurrent callers share a single refresh.
	ForceRefresh(ctx context.Context) (string, error)
	// Invalidate marks the session unusable after the server rejected a
	// freshly refreshed token.
	Invalidate()
}

// MetricsRecorder receives one observation per logical API call. Implemented
// by internal/metrics; nil disables recording.
type MetricsRecorder interface {
	Record(method, endpoint string, status int, latency time.Duration, retries int)
}

// Config controls a Client. Zero fields fall back to the defaults below.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	UserAgent      string
	// InsecureSkipVerify disables TLS verification for lab deployments
	// with self-signed certificates. Never the default.
	InsecureSkipVerify bool
}

// DefaultConfig returns the settings used against a production server.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
		RetryMaxDelay:  8 * time.Second,
		UserAgent:      "energygrid-cli",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig(c.BaseURL)
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = def.RetryBaseDelay
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		c.RetryMaxDelay = def.RetryMaxDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	return c
}

// RequestInterceptor runs before each attempt of an outgoing request.
// Interceptors run in registration order and may mutate the request; an
// error aborts the call.
type RequestInterceptor func(ctx context.Context, req *http.Request) error

// Client is the typed EnergyGrid API client. It is safe for concurrent use;
// all per-call state lives on the stack of each method.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	tokens       TokenSource
	metrics      MetricsRecorder
	interceptors []RequestInterceptor
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithTokenSource attaches the session manager that supplies bearer tokens.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithMetrics attaches a request metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInterceptor appends a request interceptor after the default chain.
func WithInterceptor(ri RequestInterceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, ri) }
}

// New builds a Client with the default interceptor chain: standard headers,
// request ID injection, then bearer token attachment.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gridapi: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gridapi: invalid base URL %q: %w", cfg.BaseURL, err)
	}

	c := &Client{cfg: cfg}
	c.interceptors = []RequestInterceptor{c.headersInterceptor, requestIDInterceptor, c.authInterceptor}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		transport := http.DefaultTransport
		if cfg.InsecureSkipVerify {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			transport = t
		}
		c.httpClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}
	return c, nil
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func (c *Client) headersInterceptor(_ context.Context, req *http.Request) error {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return nil
}

func requestIDInterceptor(_ context.Context, req *http.Request) error {
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}
	return nil
}

func (c *Client) authInterceptor(ctx context.Context, req *http.Request) error {
	if c.tokens == nil || skipAuth(req) {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

type ctxKey int

const ctxKeySkipAuth ctxKey = iota

func skipAuth(req *http.Request) bool {
	v, _ := req.Context().Value(ctxKeySkipAuth).(bool)
	return v
}

// callOpts shape one logical API call.
type callOpts struct {
	// idempotent permits retrying after the request may have reached the
	// server. GETs always are; mutations opt in explicitly.
	idempotent bool
	skipAuth   bool
	// raw skips body normalization, for file downloads.
	raw io.Writer
	// header, when non-nil, receives a copy of the response headers on
	// success.
	header *http.Header
}

// do runs one logical API call with retries, token refresh, and payload
// normalization in both directions. out, when non-nil, receives the decoded
// normalized response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, opts callOpts) error {
	start := time.Now()

	var wireBody []byte
	if body != nil {
		canonical, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		wireBody, err = DenormalizeJSON(canonical)
		if err != nil {
			return fmt.Errorf("denormalize request: %w", err)
		}
	}

	callURL := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		callURL += "?" + query.Encode()
	}

	reqCtx := ctx
	if opts.skipAuth {
		reqCtx = context.WithValue(ctx, ctxKeySkipAuth, true)
	}

	buildReq := func() (*http.Request, error) {
		var rd io.Reader
		if wireBody != nil {
			rd = bytes.NewReader(wireBody)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, callURL, rd)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for _, ic := range c.interceptors {
			if err := ic(reqCtx, req); err != nil {
				return nil, err
			}
		}
		return req, nil
	}

	retries := 0
	refreshed := false
	finish := func(status int, err error) error {
		if c.metrics != nil {
			c.metrics.Record(method, path, status, time.Since(start), retries)
		}
		return err
	}

	for attempt := 0; ; attempt++ {
		req, err := buildReq()
		if err != nil {
			return finish(0, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return finish(0, ctx.Err())
			}
			retryable := method == http.MethodGet || method == http.MethodHead || opts.idempotent
			if retryable && attempt < c.cfg.MaxRetries {
				logging.APIDebug("%s %s network error (attempt %d/%d): %v", method, path, attempt+1, c.cfg.MaxRetries+1, err)
				retries++
				if err := c.sleepBackoff(ctx, attempt, 0); err != nil {
					return finish(0, err)
				}
				continue
			}
			return finish(0, fmt.Errorf("%s %s: %w", method, path, err))
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		status := resp.StatusCode

		if status >= 200 && status < 300 {
			if readErr != nil {
				return finish(status, fmt.Errorf("read response: %w", readErr))
			}
			logging.API("%s %s -> %d in %s", method, path, status, time.Since(start).Round(time.Millisecond))
			if opts.header != nil {
				*opts.header = resp.Header.Clone()
			}
			if opts.raw != nil {
				_, err := opts.raw.Write(respBody)
				return finish(status, err)
			}
			if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
				return finish(status, nil)
			}
			normalized, err := NormalizeJSON(respBody)
			if err != nil {
				return finish(status, fmt.Errorf("normalize response: %w", err))
			}
			if err := json.Unmarshal(normalized, out); err != nil {
				return finish(status, fmt.Errorf("decode response: %w", err))
			}
			return finish(status, nil)
		}

		// Non-2xx. Normalize what we can for error extraction; an
		// unreadable or unparseable body still yields a usable error.
		normalized := respBody
		if n, err := NormalizeJSON(respBody); err == nil {
			normalized = n
		}
		apiErr := parseAPIError(status, resp.Header, normalized)

		switch {
		case status == http.StatusUnauthorized && c.tokens != nil && !opts.skipAuth && !refreshed:
			// One refresh, one replay. A second 401 means the session
			// is truly dead.
			refreshed = true
			logging.API("%s %s -> 401, refreshing session", method, path)
			if _, err := c.tokens.ForceRefresh(ctx); err != nil {
				return finish(status, fmt.Errorf("session refresh after 401: %w", err))
			}
			continue

		case status == http.StatusUnauthorized && refreshed:
			c.tokens.Invalidate()
			logging.APIWarn("%s %s -> 401 after refresh, session invalidated", method, path)
			return finish(status, apiErr)

		case apiErr.Temporary() && attempt < c.cfg.MaxRetries:
			retryable := method == http.MethodGet || method == http.MethodHead ||
				opts.idempotent || status == http.StatusTooManyRequests
			if !retryable {
				return finish(status, apiErr)
			}
			logging.APIDebug("%s %s -> %d, backing off (attempt %d/%d)", method, path, status, attempt+1, c.cfg.MaxRetries+1)
			retries++
			if err := c.sleepBackoff(ctx, attempt, apiErr.RetryAfter); err != nil {
				return finish(status, err)
			}
			continue

		default:
			reqID := apiErr.RequestID
			if reqID == "" {
				reqID = req.Header.Get(headerRequestID)
			}
			logging.WithRequestID(logging.CategoryAPI, reqID).Info("%s %s -> %d %s", method, path, status, apiErr.Code)
			return finish(status, apiErr)
		}
	}
}

// sleepBackoff waits for the attempt's backoff delay or until the context
// ends. A server-provided Retry-After overrides the computed delay.
func (c *Client) sleepBackoff(ctx context.Context, attempt int, retryAfter time.Duration) error {
	delay := retryAfter
	if delay <= 0 {
		ceiling := c.cfg.RetryMaxDelay
		d := c.cfg.RetryBaseDelay << uint(attempt)
		if d > ceiling || d <= 0 {
			d = ceiling
		}
		// Full jitter keeps a burst of failed clients from retrying in
		// lockstep.
		delay = time.Duration(rand.Int63n(int64(d))) + time.Millisecond
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// get/post/put/del are the verb helpers the resource files build on.

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, callOpts{})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, callOpts{})
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out, callOpts{idempotent: true})
}

func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, callOpts{idempotent: true})
}
