package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tsunayoshi21/Labeling-app/internal/auth"
	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

const (
	// APIPrefix is prepended to every endpoint path
	APIPrefix = "/api/v2"

	// DefaultTimeout bounds a single round-trip
	DefaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response from the Task API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given HTTP status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is a REST client for the annotation Task API
type Client struct {
	baseURL    string
	tokens     auth.TokenStore
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Task API client rooted at baseURL (scheme://host[:port])
func NewClient(baseURL string, tokens auth.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens exposes the credential store the client authenticates with
func (c *Client) Tokens() auth.TokenStore {
	return c.tokens
}

// buildURL joins the API prefix, avoiding a doubled prefix when callers pass one
func (c *Client) buildURL(path string) string {
	path = strings.TrimPrefix(path, APIPrefix)
	return c.baseURL + APIPrefix + path
}

// Do executes a request and decodes a JSON response into result.
// It returns (false, nil) for 204 No Content. A 401 triggers one token
// refresh and one retry.
func (c *Client) Do(ctx context.Context, method, path string, body, result interface{}) (bool, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return false, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.canRefresh(path) {
		resp.Body.Close()
		if refreshErr := c.refresh(ctx); refreshErr == nil {
			resp, err = c.send(ctx, method, path, payload)
			if err != nil {
				return false, err
			}
		} else {
			return false, &APIError{Status: http.StatusUnauthorized, Message: "session expired"}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return false, fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return true, nil
}

// canRefresh reports whether a 401 on path may be retried with a refreshed token
func (c *Client) canRefresh(path string) bool {
	if c.tokens == nil || c.tokens.RefreshToken() == "" {
		return false
	}
	return strings.TrimPrefix(path, APIPrefix) != "/login"
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// newAPIError prefers the server's "error" or "message" field over the bare status
func newAPIError(status int, body []byte) *APIError {
	msg := fmt.Sprintf("HTTP %d", status)
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			msg = parsed.Error
		} else if parsed.Message != "" {
			msg = parsed.Message
		}
	}
	return &APIError{Status: status, Message: msg}
}

// NextTask returns the annotator's current task, or nil when none remain
func (c *Client) NextTask(ctx context.Context) (*model.Task, error) {
	var task model.Task
	ok, err := c.Do(ctx, http.MethodGet, "/task/next", nil, &task)
	if err != nil {
		return nil, fmt.Errorf("get next task: %w", err)
	}
	if !ok || task.AnnotationID == 0 {
		return nil, nil
	}
	return &task, nil
}

// History returns recently completed tasks, most recent first
func (c *Client) History(ctx context.Context, limit int) ([]model.Task, error) {
	var result struct {
		History []model.Task `json:"history"`
	}
	path := "/task/history?limit=" + url.QueryEscape(strconv.Itoa(limit))
	if _, err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return result.History, nil
}

// PendingPreview returns upcoming tasks in server order
func (c *Client) PendingPreview(ctx context.Context, limit int) ([]model.Task, error) {
	var result struct {
		Pending []model.Task `json:"pending"`
	}
	path := "/task/pending-preview?limit=" + url.QueryEscape(strconv.Itoa(limit))
	if _, err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("get pending preview: %w", err)
	}
	return result.Pending, nil
}

// LoadTask fetches a specific task by annotation id
func (c *Client) LoadTask(ctx context.Context, annotationID int64) (*model.Task, error) {
	var task model.Task
	path := "/task/load/" + strconv.FormatInt(annotationID, 10)
	ok, err := c.Do(ctx, http.MethodGet, path, nil, &task)
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", annotationID, err)
	}
	if !ok {
		return nil, fmt.Errorf("load task %d: empty response", annotationID)
	}
	return &task, nil
}

// GetAnnotation fetches the stored annotation with its image fields
func (c *Client) GetAnnotation(ctx context.Context, annotationID int64) (*model.Task, error) {
	var task model.Task
	path := "/annotations/" + strconv.FormatInt(annotationID, 10)
	if _, err := c.Do(ctx, http.MethodGet, path, nil, &task); err != nil {
		return nil, fmt.Errorf("get annotation %d: %w", annotationID, err)
	}
	return &task, nil
}

// SubmitAction applies an annotator decision. The returned task is nil when
// the server only acknowledges the update.
func (c *Client) SubmitAction(ctx context.Context, annotationID int64, action model.Action) (*model.Task, error) {
	var task model.Task
	path := "/annotations/" + strconv.FormatInt(annotationID, 10)
	if _, err := c.Do(ctx, http.MethodPut, path, action, &task); err != nil {
		return nil, fmt.Errorf("submit %s for %d: %w", action.Status, annotationID, err)
	}
	if task.AnnotationID == 0 {
		return nil, nil
	}
	return &task, nil
}

// Stats returns the annotator's personal counts
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if _, err := c.Do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}
