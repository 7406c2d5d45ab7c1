// Package api is the HTTP client for the records service. It maps the four
// logical operations (list, create, update, delete) onto REST calls under a
// configurable base URL and normalizes every failure into a *RequestError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/records/internal/model"
)

// DefaultBasePath is used when no base URL is configured.
const DefaultBasePath = "/api"

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		if token = strings.TrimSpace(token); token != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client talks to the records API. It keeps no state between calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	logger     *slog.Logger
}

// New creates a Client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("api: base URL must be absolute: %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		headers:    make(http.Header),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches all records in server order. A non-array body yields an
// empty list.
func (c *Client) List(ctx context.Context) ([]model.Record, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/records", nil)
	if err != nil {
		return nil, err
	}
	if isEmpty(body) {
		return []model.Record{}, nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, decodeError(status, err)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return []model.Record{}, nil
	}
	var recs []model.Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, decodeError(status, err)
	}
	return recs, nil
}

// Create posts a new record and returns the server's canonical copy.
func (c *Client) Create(ctx context.Context, p model.Payload) (model.Record, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/records", p)
	if err != nil {
		return model.Record{}, err
	}
	return decodeRecord(status, body)
}

// Update replaces the fields present in p on record id.
func (c *Client) Update(ctx context.Context, id string, p model.Patch) (model.Record, error) {
	status, body, err := c.do(ctx, http.MethodPut, recordPath(id), p)
	if err != nil {
		return model.Record{}, err
	}
	return decodeRecord(status, body)
}

// Delete removes record id. An empty or 204 response is a success.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, http.MethodDelete, recordPath(id), nil)
	return err
}

func recordPath(id string) string {
	return "/records/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, &RequestError{Message: "encode request: " + err.Error()}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, transportError(err)
	}
	req.Header = cloneHeader(c.headers)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	log := c.logger.With("request_id", reqID, "method", method, "path", path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", "error", err)
		return 0, nil, transportError(err)
	}
	data, err := readAllAndClose(resp.Body)
	if err != nil {
		log.Warn("read response failed", "status", resp.StatusCode, "error", err)
		return resp.StatusCode, nil, transportError(err)
	}
	log.Debug("request done", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, data, newStatusError(resp.StatusCode, data)
	}
	return resp.StatusCode, data, nil
}

func decodeRecord(status int, body []byte) (model.Record, error) {
	if isEmpty(body) {
		return model.Record{}, nil
	}
	var rec model.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.Record{}, decodeError(status, err)
	}
	return rec, nil
}

func isEmpty(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0
}

func readAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
