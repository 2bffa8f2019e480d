// Package session handles the non-realtime boundary around the persistent
// connection: the HTTP calls that create or join a room, and local
// persistence of the returned credentials so a restarted client can rejoin
// with the same identity.
package session

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
	"time"

	"github.com/cenkalti/backoff"
)

// Credentials identify this client to the realtime endpoint. They are
// established once per room and never change for the session.
type Credentials struct {
	RoomCode     string `json:"room_code"`
	PlayerID     string `json:"player_id"`
	SessionToken string `json:"session_token"`
}

// APIError represents an error response from the game server.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client talks to the room-management HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxElapsed time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a room API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     slog.Default(),
		maxElapsed: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetryBudget bounds the total time spent retrying a request.
func WithRetryBudget(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxElapsed = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// CreateRoom creates a room and returns the host player's credentials.
func (c *Client) CreateRoom(ctx context.Context, displayName string) (Credentials, error) {
	return c.postCredentials(ctx, "/api/rooms", map[string]string{
		"display_name": displayName,
	})
}

// JoinRoom joins an existing room by code.
func (c *Client) JoinRoom(ctx context.Context, roomCode, displayName string) (Credentials, error) {
	path := "/api/rooms/" + url.PathEscape(roomCode) + "/join"
	return c.postCredentials(ctx, path, map[string]string{
		"display_name": displayName,
	})
}

// postCredentials posts a request and decodes the credential triple,
// retrying transient failures with exponential backoff.
func (c *Client) postCredentials(ctx context.Context, path string, payload any) (Credentials, error) {
	var creds Credentials

	op := func() error {
		body, err := c.doPost(ctx, path, payload)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.IsRetryable() {
				return backoff.Permanent(err)
			}
			c.logger.Debug("room request failed, will retry", "path", path, "error", err)
			return err
		}
		if err := json.Unmarshal(body, &creds); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return Credentials{}, err
	}

	if creds.RoomCode == "" || creds.PlayerID == "" {
		return Credentials{}, fmt.Errorf("incomplete credentials in response")
	}
	return creds, nil
}

func (c *Client) doPost(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}
