package pages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// DefaultAPIPrefix is where the page API is mounted.
const DefaultAPIPrefix = "/api/pages/"

// Client is a Store backed by the page HTTP API.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithAPIPrefix changes the mount prefix of the page API.
func WithAPIPrefix(prefix string) ClientOption {
	return func(c *Client) {
		c.prefix = "/" + strings.Trim(prefix, "/") + "/"
	}
}

// NewClient builds a client for the API served at baseURL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  DefaultAPIPrefix,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, option := range options {
		if option != nil {
			option(c)
		}
	}
	return c
}

// APIError carries a non-success response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pages: api returned %d: %s", e.Status, e.Message)
}

// Fetch implements Store.
func (c *Client) Fetch(ctx context.Context, path string) (model.PageConfig, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Patch implements Store.
func (c *Client) Patch(ctx context.Context, path string, patch model.PagePatch) (model.PageConfig, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("pages: encode patch: %w", err)
	}
	return c.do(ctx, http.MethodPatch, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (model.PageConfig, error) {
	clean, err := NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	endpoint := c.baseURL + c.prefix + escapePath(clean)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("pages: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("pages: %s %s: %w", method, clean, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("pages: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return model.PageConfig{}, decodeAPIError(resp.StatusCode, payload, clean)
	}

	var page model.PageConfig
	if err := json.Unmarshal(payload, &page); err != nil {
		return model.PageConfig{}, fmt.Errorf("pages: decode page: %w", err)
	}
	return page, nil
}

// ErrorBody is the JSON error shape shared by the API and the client.
type ErrorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func decodeAPIError(status int, payload []byte, path string) error {
	var body ErrorBody
	_ = json.Unmarshal(payload, &body)
	apiErr := &APIError{Status: status, Message: body.Error, Fields: body.Fields}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, apiErr)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s: %w", ErrStaleRevision, path, apiErr)
	default:
		return apiErr
	}
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for idx, segment := range segments {
		segments[idx] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
