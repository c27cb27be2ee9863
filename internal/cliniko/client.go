// Package cliniko is a client for the Cliniko practice-management REST API.
//
// Every method funnels through a single request primitive that applies the
// Basic-Auth and JSON headers computed at construction, maps non-2xx
// responses to *APIError, and never retries.
package cliniko

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

const (
	DefaultBaseURL   = "https://api.au4.cliniko.com/v1"
	DefaultUserAgent = "MCP-Cliniko/1.0"
	defaultTimeout   = 30 * time.Second

	// maxErrorBody caps how much of an error response is kept on APIError.
	// Longer bodies are cut and end with truncatedSuffix.
	maxErrorBody    = 64 * 1024
	truncatedSuffix = "... (truncated)"

	instrumentationName = "github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
)

// emptyResult is returned for 204 responses.
var emptyResult = json.RawMessage(`{}`)

// Client calls the Cliniko API. It is safe for concurrent use; its header set
// is computed once and never mutated.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	headers    http.Header
	logger     *logging.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used for other shards and tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics enables Prometheus request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("cliniko API key required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Nop(),
		tracer:     otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.headers = http.Header{}
	c.headers.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(apiKey+":")))
	c.headers.Set("Accept", "application/json")
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("User-Agent", c.userAgent)

	c.logger = c.logger.Named("cliniko")
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues one request. path is appended to the base URL and may carry a
// query string. body, when non-nil, is JSON encoded. headers are merged over
// the defaults.
//
// A non-2xx status yields *APIError, 204 yields an empty object, and a 2xx
// body that is not JSON yields an error wrapping ErrParse.
func (c *Client) do(ctx context.Context, method, path string, body any, headers http.Header) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "cliniko "+method+" "+routeOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", routeOf(path)),
		),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.headers.Clone()
	for k, vs := range headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, path, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Debug(ctx, "cliniko request failed",
			zap.String("method", method),
			zap.String("route", routeOf(path)),
			zap.Error(err))
		return nil, fmt.Errorf("cliniko request %s %s failed: %w", method, routeOf(path), err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	c.metrics.observe(method, path, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug(ctx, "cliniko request",
		zap.String("method", method),
		zap.String("route", routeOf(path)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, readAPIError(resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return emptyResult, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(data) {
		span.SetStatus(codes.Error, "malformed body")
		return nil, fmt.Errorf("%w: %s %s returned %d bytes", ErrParse, method, routeOf(path), len(data))
	}
	c.logger.Trace(ctx, "cliniko response body", zap.ByteString("body", data))

	return json.RawMessage(data), nil
}

func readAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	if len(data) > maxErrorBody {
		apiErr.Body = string(data[:maxErrorBody]) + truncatedSuffix
		apiErr.Truncated = true
	}
	return apiErr
}

// Do issues a raw request against the API and returns the JSON body.
func (c *Client) Do(ctx context.Context, method, path string, body any, headers http.Header) (json.RawMessage, error) {
	return c.do(ctx, method, path, body, headers)
}

// getJSON fetches path and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.sendJSON(ctx, http.MethodGet, path, nil, out)
}

// sendJSON issues a request and decodes the body into out (nil to discard).
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func decode(raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if s, ok := out.(rawSetter); ok {
		s.setRaw(raw)
	}
	return nil
}

// list fetches a list endpoint and decodes the envelope.
func list[T any](ctx context.Context, c *Client, path, key string, q *query) (*ListResponse[T], error) {
	raw, err := c.do(ctx, http.MethodGet, path+q.encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw, key)
}

// resourcePath renders "/<collection>/<id><suffix>", rejecting ids <= 0.
func resourcePath(collection string, id ID, suffix string) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("%s id %d: %w", strings.TrimPrefix(collection, "/"), id, ErrInvalidID)
	}
	return collection + "/" + id.String() + suffix, nil
}

// IsParseError reports whether err came from a malformed response body.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
