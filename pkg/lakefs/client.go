// Package lakefs is the branch/commit backend adapter.
//
// The hub delegates all version control — branches, commits, diffs, object
// staging — to a LakeFS server and only keeps the REST surface it needs:
// repository and branch CRUD, tree listing with pagination, staging of
// physical addresses, commits and commit history. The adapter returns typed
// errors so handlers can translate backend failures into stable HTTP
// statuses.
package lakefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// Sentinel errors mapped from backend responses.
var (
	// ErrNotFound indicates the repository, branch, ref or object does not
	// exist in the backend.
	ErrNotFound = errors.New("lakefs: not found")

	// ErrConflict indicates a name collision or a commit race lost to a
	// concurrent writer.
	ErrConflict = errors.New("lakefs: conflict")

	// ErrPrecondition indicates a stale parent or failed conditional
	// operation.
	ErrPrecondition = errors.New("lakefs: precondition failed")

	// ErrUnavailable indicates the backend is temporarily unreachable or
	// overloaded. Callers may retry.
	ErrUnavailable = errors.New("lakefs: backend unavailable")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("lakefs API error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode == http.StatusPreconditionFailed:
		return ErrPrecondition
	case e.StatusCode >= 500:
		return ErrUnavailable
	}
	return nil
}

// Config contains connection settings for the backend.
type Config struct {
	// Endpoint is the LakeFS base URL, e.g. "http://lakefs:8000".
	Endpoint string

	// AccessKey and SecretKey authenticate via HTTP basic auth.
	AccessKey string
	SecretKey string

	// Timeout bounds each backend call (default: 30s).
	Timeout time.Duration
}

// Client is the LakeFS REST client.
type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	httpClient *http.Client
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("lakefs endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   cfg.Endpoint + "/api/v1",
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.accessKey, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var backendErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &backendErr) == nil && backendErr.Message != "" {
			apiErr.Message = backendErr.Message
		} else {
			apiErr.Message = string(respBody)
		}
		telemetry.RecordError(ctx, apiErr)
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// put performs a PUT request.
func (c *Client) put(ctx context.Context, path string, query url.Values, body, result any) error {
	return c.do(ctx, http.MethodPut, path, query, body, result)
}

// delete performs a DELETE request.
func (c *Client) delete(ctx context.Context, path string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

// Healthcheck verifies the backend answers.
func (c *Client) Healthcheck(ctx context.Context) error {
	return c.get(ctx, "/repositories", url.Values{"amount": {"1"}}, nil)
}
