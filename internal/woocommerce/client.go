// Package woocommerce is a thin client for the WooCommerce REST API,
// covering the order operations the gateway needs.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ordersPath is the WooCommerce v3 orders collection.
const ordersPath = "/wp-json/wc/v3/orders"

// maxResponseBody caps how much of a REST response is read back.
const maxResponseBody = 4 << 20

// APIError is a non-2xx answer from the REST API. The body is kept for
// logging; callers must not forward it to end users.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce API returned %d", e.StatusCode)
}

// Client talks to the WooCommerce REST API with HTTP Basic auth.
type Client struct {
	baseURL  string
	user     string
	password string
	client   *http.Client
	logger   *slog.Logger
}

// NewClient builds a client for the REST API rooted at baseURL
// (the WordPress site root, without /wp-json).
func NewClient(baseURL, user, password string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		user:     user,
		password: password,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// CreateOrder creates an order and returns the created resource.
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, ordersPath, req, &order); err != nil {
		return nil, err
	}
	c.logger.Info("woocommerce order created",
		"order_id", order.ID, "status", order.Status, "total", order.Total)
	return &order, nil
}

// Order fetches a single order by database id.
func (c *Client) Order(ctx context.Context, id int) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", ordersPath, id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("woocommerce request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read woocommerce response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("woocommerce API error",
			"method", method, "path", path, "status", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode woocommerce response: %w", err)
	}
	return nil
}
