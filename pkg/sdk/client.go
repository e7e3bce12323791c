package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// maxErrorBody caps how much of a failed response is read for APIError.Body.
const maxErrorBody = 1 << 20

// TokenRefresher is implemented by whatever owns the session. The client calls
// Refresh when a request comes back 401 and OnSessionExpired when that refresh
// yields no token.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
	OnSessionExpired(ctx context.Context)
}

// RequestOptions describes a single API call.
type RequestOptions struct {
	Method  string
	Token   string // explicit bearer token; the client's token source is used when empty
	Body    any
	Headers map[string]string
	// SkipRefresh disables the refresh-on-401 path, e.g. for the refresh call itself.
	SkipRefresh bool
}

// Client issues JSON requests against the ReactBase API and heals expired
// access tokens through a late-bound TokenRefresher.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *slog.Logger
	metrics    *ClientMetrics

	mu        sync.RWMutex
	refresher TokenRefresher
	flights   singleflight.Group
}

// ClientOptions configures Client construction.
type ClientOptions struct {
	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
	Logger      *slog.Logger
	Metrics     *ClientMetrics
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the transport client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithTokenSource supplies the bearer token for requests that do not pass one explicitly.
func WithTokenSource(source oauth2.TokenSource) ClientOption {
	return func(opts *ClientOptions) {
		opts.TokenSource = source
	}
}

// WithLogger sets the logger used for request and refresh diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = logger
	}
}

// WithMetrics records request and refresh counters on m.
func WithMetrics(m *ClientMetrics) ClientOption {
	return func(opts *ClientOptions) {
		opts.Metrics = m
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.HTTPClient,
		tokens:     opts.TokenSource,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetRefresher binds the refresh handler. Passing nil unbinds it, after which
// a 401 surfaces as an APIError.
func (c *Client) SetRefresher(r TokenRefresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

func (c *Client) currentRefresher() TokenRefresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// SetTokenSource replaces the source of bearer tokens for requests that do not
// pass one explicitly.
func (c *Client) SetTokenSource(source oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = source
}

func (c *Client) tokenSource() oauth2.TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// Do performs the request and decodes a successful JSON response into out.
// out may be nil; it is left untouched on 204.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	_, err := c.do(ctx, endpoint, opts, out)
	return err
}

// Request is the typed form of Client.Do. It returns nil without error when
// the server answers 204.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (*T, error) {
	var out T
	status, err := c.do(ctx, endpoint, opts, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, endpoint string, opts RequestOptions, out any) (int, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var payload []byte
	if opts.Body != nil {
		var err error
		payload, err = json.Marshal(opts.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	token := opts.Token
	if source := c.tokenSource(); token == "" && source != nil {
		tok, err := source.Token()
		switch {
		case err == nil:
			token = tok.AccessToken
		case !errors.Is(err, ErrNotAuthenticated):
			return 0, fmt.Errorf("failed to resolve access token: %w", err)
		}
	}

	resp, err := c.send(ctx, method, endpoint, payload, token, opts.Headers)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !opts.SkipRefresh {
		if refresher := c.currentRefresher(); refresher != nil {
			discard(resp)

			newToken, err := c.refresh(ctx, refresher)
			if err != nil {
				return http.StatusUnauthorized, err
			}

			c.metrics.recordRetry(ctx)
			c.logger.Debug("retrying request with refreshed token", "method", method, "endpoint", endpoint)
			resp, err = c.send(ctx, method, endpoint, payload, newToken, opts.Headers)
			if err != nil {
				return 0, err
			}
		}
	}

	return resp.StatusCode, decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte, token string, headers map[string]string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	c.metrics.recordRequest(ctx, method, resp.StatusCode)
	c.logger.Debug("api request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
	return resp, nil
}

// refresh coalesces concurrent refreshes into one flight. The flight runs
// detached from any single caller's cancellation; each caller still stops
// waiting when its own context ends.
func (c *Client) refresh(ctx context.Context, r TokenRefresher) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan("refresh", func() (any, error) {
		token, err := r.Refresh(flightCtx)
		if err == nil && token != "" {
			c.metrics.recordRefresh(flightCtx, true)
			return token, nil
		}

		c.metrics.recordRefresh(flightCtx, false)
		c.metrics.recordExpired(flightCtx)
		c.logger.Warn("token refresh failed; ending session", "error", err)
		r.OnSessionExpired(flightCtx)

		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return "", ErrSessionExpired
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var body any
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &body); err != nil {
				body = nil
			}
		}
		return &APIError{Status: resp.StatusCode, Body: body}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
