// Package gql provides the GraphQL transport and the introspection catalog
// for the remote Admin API.
package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dbsmedya/shopsync/internal/config"
	"github.com/dbsmedya/shopsync/internal/logger"
)

// Error codes the recovery protocol distinguishes.
const (
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
	CodeMissingRequiredArgs = "missingRequiredArguments"
)

// Client executes GraphQL documents against one store/API-version endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      *logger.Logger
}

// NewClient creates a Client for the configured store.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		endpoint: cfg.Endpoint(),
		token:    cfg.AccessToken,
		http: &http.Client{
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		},
		log: log,
	}
}

// NewClientWithEndpoint creates a Client against an explicit endpoint URL,
// for callers that resolve the endpoint themselves.
func NewClientWithEndpoint(endpoint, token string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: 120 * time.Second},
		log:      log,
	}
}

// payload is the wire format of a GraphQL request body.
type payload struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// ResponseError is one entry of the response's errors array.
type ResponseError struct {
	Message    string          `json:"message"`
	Path       []interface{}   `json:"path"`
	Extensions ErrorExtensions `json:"extensions"`
}

// ErrorExtensions carries the server's machine-readable error code.
type ErrorExtensions struct {
	Code string `json:"code"`
}

// Code returns the server error code, empty when none was provided.
func (e ResponseError) Code() string {
	return e.Extensions.Code
}

// FieldPath returns the string segments of the error path. Numeric list
// indexes are dropped; an empty result means the path is unusable.
func (e ResponseError) FieldPath() []string {
	var out []string
	for _, seg := range e.Path {
		if s, ok := seg.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ThrottleStatus is the server-side token-bucket state reported per response.
type ThrottleStatus struct {
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
	MaximumAvailable   float64 `json:"maximumAvailable"`
}

// Cost is the cost-accounting block of an interactive response.
type Cost struct {
	RequestedQueryCost float64        `json:"requestedQueryCost"`
	ThrottleStatus     ThrottleStatus `json:"throttleStatus"`
}

// Extensions holds the response extensions block.
type Extensions struct {
	Cost *Cost `json:"cost"`
}

// Response is one decoded GraphQL response.
type Response struct {
	Data       json.RawMessage `json:"data"`
	Errors     []ResponseError `json:"errors"`
	Extensions *Extensions     `json:"extensions"`

	raw []byte
}

// Get extracts a value from the raw response body by gjson path,
// e.g. "data.orders.pageInfo.hasNextPage".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// Raw returns the full response body.
func (r *Response) Raw() []byte {
	return r.raw
}

// HasErrors reports whether the response carries top-level errors.
func (r *Response) HasErrors() bool {
	return len(r.Errors) > 0
}

// ParseResponse decodes a raw GraphQL response body into its envelope.
func ParseResponse(raw []byte) (*Response, error) {
	out := &Response{raw: raw}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// Execute sends one POST with {query, variables} and decodes the envelope.
// A non-2xx status or an unparsable body is a transport failure.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*Response, error) {
	body, err := json.Marshal(payload{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 512))
	}

	out, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	c.log.Debugw("Executed GraphQL request",
		"bytes", len(raw),
		"errors", len(out.Errors),
	)

	return out, nil
}

// Download opens a streaming GET to a pre-signed result URL. The caller
// owns the returned body. No auth header is sent; the URL is self-contained.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected download status %d: %s", resp.StatusCode, raw)
	}

	return resp.Body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
