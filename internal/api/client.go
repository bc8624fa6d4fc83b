package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClientTimeout bounds one admin API request.
const DefaultClientTimeout = 30 * time.Second

// Error is a non-2xx response of the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the admin endpoints of a running server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithClientTimeout sets the HTTP client timeout.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a client for the server at baseURL authenticating with
// the bearer token.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: DefaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Distribute starts a reward distribution run. When the run stops after
// some transfers, the partial result is returned together with the error.
func (c *Client) Distribute(ctx context.Context, topN int, pool uint64) (*DistributionResponse, error) {
	body, status, err := c.post(ctx, "/api/v1/admin/distribute", distributeRequest{TopN: topN, Pool: pool})
	if err != nil {
		return nil, err
	}

	if status == http.StatusOK {
		var out DistributionResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode distribution: %w", err)
		}
		return &out, nil
	}

	// A failed run that executed transfers still reports them.
	var partial DistributionResponse
	if err := json.Unmarshal(body, &partial); err == nil && partial.RunID != "" {
		return &partial, &Error{Status: status, Message: partial.Error}
	}
	return nil, decodeError(status, body)
}

// SetPause sets the emergency pause and returns the leaderboard state.
func (c *Client) SetPause(ctx context.Context, paused bool) (bool, error) {
	body, status, err := c.post(ctx, "/api/v1/admin/pause", pauseRequest{Paused: &paused})
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, decodeError(status, body)
	}

	var lb leaderboardResponse
	if err := json.Unmarshal(body, &lb); err != nil {
		return false, fmt.Errorf("decode leaderboard: %w", err)
	}
	return lb.EmergencyPause, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func decodeError(status int, body []byte) error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return &Error{Status: status, Message: http.StatusText(status)}
	}
	return &Error{Status: status, Message: e.Error}
}
