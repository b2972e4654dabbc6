// Package notion is a small client for the parts of the Notion REST API the blog reads:
// database queries, block children and database metadata.
package notion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ppiankov/notionblog/internal/retry"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
	DefaultTimeout = 30 * time.Second
	MaxPageSize    = 100
	userAgent      = "notionblog/1.0"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the Notion API with a single integration token.
type Client struct {
	token   string
	baseURL string
	version string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithVersion overrides the Notion-Version header.
func WithVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.version = v
		}
	}
}

// WithTimeout bounds every single HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client. An empty token is allowed; every call will then fail with 401.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		version: DefaultVersion,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasToken reports whether the client was configured with a token.
func (c *Client) HasToken() bool {
	return strings.TrimSpace(c.token) != ""
}

// QueryDatabase runs one page of a database query.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req QueryRequest) (*ListResponse, error) {
	var out ListResponse
	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, fmt.Errorf("query database %s: %w", databaseID, err)
	}
	return &out, nil
}

// BlockChildren lists one page of a block's immediate children.
func (c *Client) BlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*ListResponse, error) {
	q := url.Values{}
	if pageSize > 0 {
		if pageSize > MaxPageSize {
			pageSize = MaxPageSize
		}
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	path := "/v1/blocks/" + url.PathEscape(blockID) + "/children"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list children of %s: %w", blockID, err)
	}
	return &out, nil
}

// RetrieveDatabase returns the database metadata object.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (Object, error) {
	var out Object
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil, &out); err != nil {
		return nil, fmt.Errorf("retrieve database %s: %w", databaseID, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := jsonAPI.Marshal(body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		if !apiErr.Retryable() {
			return retry.Permanent(apiErr)
		}
		return apiErr
	}

	if err := jsonAPI.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		_ = jsonAPI.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode
	}
	return apiErr
}

// APIError is the error object Notion returns for non-200 responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("notion: HTTP %d", e.Status)
	}
	return fmt.Sprintf("notion: HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the same request may succeed later:
// rate limits, conflicts and server-side errors.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusConflict ||
		e.Status >= 500
}

// IsNotFound reports whether err is a Notion 404 (missing page, or not shared with the integration).
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
