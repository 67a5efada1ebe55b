// Package workflow triggers n8n webhooks.
//
// Every hook is a plain POST of a JSON payload. A hook with no URL is
// reported as ErrNotConfigured so callers can answer 503 instead of
// pretending the upstream failed.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Hook string

const (
	HookOrders     Hook = "orders"
	HookProduction Hook = "production"
	HookCards      Hook = "cards"
	HookWaitlist   Hook = "waitlist"
)

// SecretHeader authenticates us to the workflow.
const SecretHeader = "X-Webhook-Secret"

var ErrNotConfigured = errors.New("workflow: webhook not configured")

// StatusError is a non-2xx webhook response.
type StatusError struct {
	Hook Hook
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("workflow %s: upstream returned %d", e.Hook, e.Code)
}

type Config struct {
	URLs    map[Hook]string
	Secret  string
	Timeout time.Duration
}

type Client struct {
	urls    map[Hook]string
	secret  string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	urls := make(map[Hook]string, len(cfg.URLs))
	for h, u := range cfg.URLs {
		if u != "" {
			urls[h] = u
		}
	}
	return &Client{
		urls:    urls,
		secret:  cfg.Secret,
		timeout: cfg.Timeout,
		http:    &http.Client{},
		logger:  logger,
	}
}

// Configured reports whether hook has a URL.
func (c *Client) Configured(hook Hook) bool {
	_, ok := c.urls[hook]
	return ok
}

// Trigger posts payload to hook and decodes the response into out when out
// is non-nil.
func (c *Client) Trigger(ctx context.Context, hook Hook, payload, out any) error {
	url, ok := c.urls[hook]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConfigured, hook)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", hook, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", hook, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		req.Header.Set(SecretHeader, c.secret)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("webhook call failed", zap.String("hook", string(hook)), zap.Error(err))
		return fmt.Errorf("workflow %s: %w", hook, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("workflow %s: read response: %w", hook, err)
	}

	c.logger.Debug("webhook call",
		zap.String("hook", string(hook)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Hook: hook, Code: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("workflow %s: decode response: %w", hook, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
