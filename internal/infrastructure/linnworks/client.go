package linnworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

// errorBodyPreview bounds how much of an error body is echoed into messages
const errorBodyPreview = 256

// Client calls the order and inventory endpoints. It implements
// integration.OrderItemResolver, integration.FeeLookupClient and
// integration.OrderSource.
type Client struct {
	config     *Config
	catalog    *profit.Catalog
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new client; the catalog maps property names and
// source search terms
func NewClient(config *Config, catalog *profit.Catalog) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: marketplace catalog is required", integration.ErrPlatformNotConfigured)
	}

	return &Client{
		config:  config,
		catalog: catalog,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		now: time.Now,
	}, nil
}

var (
	_ integration.OrderItemResolver = (*Client)(nil)
	_ integration.FeeLookupClient   = (*Client)(nil)
	_ integration.OrderSource       = (*Client)(nil)
)

// doRequest performs an authorized request and returns the response body.
// Non-2xx responses are mapped to ErrPlatformRequestFailed carrying the status.
func (c *Client) doRequest(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("linnworks: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func statusError(status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	if len(text) > errorBodyPreview {
		text = text[:errorBodyPreview]
	}
	if text == "" {
		return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, status)
	}
	return fmt.Errorf("%w: HTTP %d - %s", integration.ErrPlatformRequestFailed, status, text)
}
