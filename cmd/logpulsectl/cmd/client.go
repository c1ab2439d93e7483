package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/dashboard"
	"github.com/good-yellow-bee/logpulse/internal/models"
	"github.com/good-yellow-bee/logpulse/internal/query"
)

// Client is a minimal LogPulse API client.
type Client struct {
	base *url.URL
	http *http.Client
}

// APIError is an error envelope returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// StreamEvent is one push message; Data is decoded by the caller
// according to Type.
type StreamEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewClient creates a client for the server at rawURL.
func NewClient(rawURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL must use http or https, got %q", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server URL must include a host")
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope respond.Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope); err == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// SendLogs submits records as one batch and returns them as stored.
func (c *Client) SendLogs(ctx context.Context, recs []*models.LogRecord) ([]*models.LogRecord, error) {
	if len(recs) == 0 {
		return nil, errors.New("no records to send")
	}
	var stored []*models.LogRecord
	if err := c.do(ctx, http.MethodPost, "/api/v1/logs", nil, recs, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// QueryLogs returns stored records matching f.
func (c *Client) QueryLogs(ctx context.Context, f query.Filter) ([]*models.LogRecord, error) {
	var recs []*models.LogRecord
	if err := c.do(ctx, http.MethodGet, "/api/v1/logs", f.Values(), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Alerts returns fired alerts, oldest first.
func (c *Client) Alerts(ctx context.Context) ([]*models.Alert, error) {
	var alerts []*models.Alert
	if err := c.do(ctx, http.MethodGet, "/api/v1/alerts", nil, nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Dashboard returns the dashboard summary.
func (c *Client) Dashboard(ctx context.Context) (*dashboard.Summary, error) {
	var s dashboard.Summary
	if err := c.do(ctx, http.MethodGet, "/api/v1/dashboard", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Stream connects to the WebSocket endpoint and calls fn for every event
// until ctx is cancelled or the server closes the connection.
func (c *Client) Stream(ctx context.Context, fn func(StreamEvent)) error {
	u := *c.base
	u.Path = c.base.Path + "/api/v1/ws"
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		fn(ev)
	}
}
