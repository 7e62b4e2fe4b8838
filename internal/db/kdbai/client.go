// Package kdbai implements db.Store over the KDB.AI REST API.
package kdbai

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

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
)

// Compile-time check: Client implements db.Store.
var _ db.Store = (*Client)(nil)

const apiPrefix = "/api/v2"

// Config holds connection parameters for a KDB.AI server.
type Config struct {
	Endpoint       string // scheme://host:port
	Username       string
	Password       string
	RequestTimeout time.Duration
}

// Client talks to a KDB.AI server over REST.
type Client struct {
	base       *url.URL
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a REST client. It does not contact the server.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme %q", base.Scheme)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:       base,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks that the server is ready to serve requests.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, db.OpPing, http.MethodGet, c.endpoint("ready"), nil, nil)
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = c.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", errors.Join(ctx.Err(), lastErr))
		case <-ticker.C:
		}
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = c.base.Path + apiPrefix + "/" + strings.Join(segments, "/")
	u.RawPath = c.base.EscapedPath() + apiPrefix + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do sends body (if any) as JSON and decodes the response into out (if any).
func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &db.Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return &db.Error{Op: op, Err: statusError(resp)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// statusError converts a non-2xx response into an error, keeping the server message.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))

	var e errorResponse
	if json.Unmarshal(raw, &e) == nil {
		if m := e.message(); m != "" {
			msg = m
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", notFoundKind(msg), msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", db.ErrUnavailable, resp.StatusCode, msg)
	default:
		return fmt.Errorf("http %d: %s", resp.StatusCode, msg)
	}
}

func notFoundKind(msg string) error {
	if strings.Contains(strings.ToLower(msg), "database") {
		return db.ErrDatabaseNotFound
	}
	return db.ErrTableNotFound
}
