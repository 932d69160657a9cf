// Package upstream is the HTTP client for the remote catalog API. The
// replica never serves reads from it directly; the sync layer pulls
// snapshots through this client and the write layer forwards mutations
// before re-syncing.
package upstream

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

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// maxResponseSize is the maximum allowed response size from the
// upstream API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Config holds the upstream API connection settings.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// APIError is a structured error response from the upstream API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("upstream: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("upstream: HTTP %d", e.StatusCode)
}

// Client calls the upstream catalog REST API using key/secret Basic
// authentication.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        cfg.ConsumerKey,
		secret:     cfg.ConsumerSecret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// doRequest performs one authenticated API call and returns the raw
// response body. Non-2xx responses become an APIError wrapping
// shared.ErrUpstream so callers can branch on the sentinel.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("upstream: failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("upstream: failed to create request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("upstream: failed to read response: %w", err)
	}

	c.logger.Debug("upstream request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// The error body is advisory; a non-JSON body still yields a
		// usable status-only error.
		_ = json.Unmarshal(raw, apiErr)
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", shared.ErrNotFound, apiErr)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, apiErr)
	}

	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", shared.ErrUpstream, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	raw, err := c.doRequest(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", shared.ErrUpstream, err)
	}
	return nil
}
