package seoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"golang.org/x/oauth2"

	"seo-assistant/cmd/internal/httpclient"
	"seo-assistant/dto"
)

// Client is a thin typed wrapper over the SEO assistant REST API.
//
// Every call carries a bearer token taken from the token source at request time. Any non-2xx
// response is reported as *HTTPError, which matches ErrRequestFailed; the error body is kept for
// logging only and never interpreted.
type Client struct {
	base *httpclient.BaseClient
}

// ErrRequestFailed is the single failure condition for non-success HTTP statuses.
var ErrRequestFailed = errors.New("request failed")

// ErrInvalidID is returned before any request is sent when a session or job id cannot be used
// as a single path segment.
var ErrInvalidID = errors.New("invalid id")

type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("seo-api %s: request failed: status=%d", e.Op, e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return ErrRequestFailed }

// ListOptions pages GET /sessions and GET /sessions/{id}/messages. Zero values use server defaults.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) values() url.Values {
	if o.Limit <= 0 && o.Offset <= 0 {
		return nil
	}
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	return q
}

func New(baseURL string, tokens oauth2.TokenSource) *Client {
	return &Client{base: httpclient.NewBaseClient(baseURL, tokens)}
}

// NewWithHTTPClient uses httpClient (for custom timeouts or transports).
func NewWithHTTPClient(httpClient *http.Client, baseURL string, tokens oauth2.TokenSource) *Client {
	return &Client{base: httpclient.NewBaseClientWithClient(httpClient, baseURL, tokens)}
}

// ListSessions calls GET /sessions.
func (c *Client) ListSessions(ctx context.Context, opts ListOptions) ([]dto.SessionListItem, error) {
	var out []dto.SessionListItem
	if err := c.do(ctx, "ListSessions", http.MethodGet, "/sessions", opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSession calls POST /sessions/async with the first message of a new conversation.
func (c *Client) CreateSession(ctx context.Context, message string) (dto.AsyncSessionStartResponse, error) {
	var out dto.AsyncSessionStartResponse
	err := c.do(ctx, "CreateSession", http.MethodPost, "/sessions/async", nil, dto.SessionCreateRequest{Message: message}, &out)
	return out, err
}

// AddMessage calls POST /sessions/{id}/messages/async.
func (c *Client) AddMessage(ctx context.Context, sessionID, message string) (dto.AsyncMessageResponse, error) {
	var out dto.AsyncMessageResponse
	relPath, err := resourcePath("AddMessage", "/sessions", sessionID, "messages", "async")
	if err != nil {
		return out, err
	}
	err = c.do(ctx, "AddMessage", http.MethodPost, relPath, nil, dto.MessageCreateRequest{Message: message}, &out)
	return out, err
}

// ListMessages calls GET /sessions/{id}/messages.
func (c *Client) ListMessages(ctx context.Context, sessionID string, opts ListOptions) ([]dto.MessageOut, error) {
	var out []dto.MessageOut
	relPath, err := resourcePath("ListMessages", "/sessions", sessionID, "messages")
	if err != nil {
		return nil, err
	}
	if err := c.do(ctx, "ListMessages", http.MethodGet, relPath, opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSession calls PATCH /sessions/{id} to rename a session.
func (c *Client) UpdateSession(ctx context.Context, sessionID, title string) (dto.SessionUpdateResponse, error) {
	var out dto.SessionUpdateResponse
	relPath, err := resourcePath("UpdateSession", "/sessions", sessionID)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, "UpdateSession", http.MethodPatch, relPath, nil, dto.SessionUpdateRequest{Title: &title}, &out)
	return out, err
}

// DeleteSession calls DELETE /sessions/{id}.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	relPath, err := resourcePath("DeleteSession", "/sessions", sessionID)
	if err != nil {
		return err
	}
	return c.do(ctx, "DeleteSession", http.MethodDelete, relPath, nil, nil, nil)
}

// JobStatus calls GET /jobs/{id}/status.
func (c *Client) JobStatus(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
	var out dto.JobStatusResponse
	relPath, err := resourcePath("JobStatus", "/jobs", jobID, "status")
	if err != nil {
		return out, err
	}
	err = c.do(ctx, "JobStatus", http.MethodGet, relPath, nil, nil, &out)
	return out, err
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "Health", http.MethodGet, "/health", nil, nil, nil)
}

// resourcePath builds prefix/{id}/rest... with id escaped as one segment.
func resourcePath(op, prefix, id string, rest ...string) (string, error) {
	if id == "" || id == "." || id == ".." {
		return "", fmt.Errorf("seo-api %s: %w: %q", op, ErrInvalidID, id)
	}
	return path.Join(append([]string{prefix, url.PathEscape(id)}, rest...)...), nil
}

func (c *Client) do(ctx context.Context, op, method, relPath string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("seo-api %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := c.base.NewRequest(ctx, method, relPath, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return fmt.Errorf("seo-api %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	const maxBodySize = 5 * 1024 * 1024
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("seo-api %s: decode response: %w", op, err)
	}
	return nil
}
