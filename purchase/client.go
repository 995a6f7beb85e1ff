package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aprendecomigo-edu/courier/core"
)

// ClientOptions configures the HTTP billing client.
type ClientOptions struct {
	// HTTPClient overrides the underlying http.Client.
	HTTPClient *http.Client
	// AuthToken, when set, is sent as a bearer token on every request.
	AuthToken string
	// MaxRetries bounds retry attempts for 429 and 5xx responses.
	MaxRetries int
	// BaseDelay is the first retry delay; it doubles per attempt up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Client is an HTTP implementation of core.PurchaseAPI. Rate limits and
// server errors are retried with capped exponential delay, honoring
// Retry-After when the server provides one. Validation failures (400, 422)
// are not errors: the response body's field errors are returned to the
// caller as a structured PurchaseResponse.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var _ core.PurchaseAPI = (*Client)(nil)

// NewClient creates a billing client for the given base URL.
func NewClient(baseURL string, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		MaxRetries: 3,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  opts.AuthToken,
		httpClient: httpClient,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxDelay:   opts.MaxDelay,
	}
}

// InitiatePurchase submits a purchase and returns the processor handoff.
func (c *Client) InitiatePurchase(ctx context.Context, req core.PurchaseRequest) (core.PurchaseResponse, error) {
	var out core.PurchaseResponse
	body, err := c.do(ctx, http.MethodPost, "/api/purchases/", req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode purchase response: %w", err)
	}
	return out, nil
}

// GetConfig fetches the payment processor configuration.
func (c *Client) GetConfig(ctx context.Context) (core.ProcessorConfig, error) {
	var out core.ProcessorConfig
	body, err := c.do(ctx, http.MethodGet, "/api/purchases/config/", nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode processor config: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			return respBody, nil
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
			// Validation failures carry structured field errors in the body.
			return respBody, nil
		case resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599):
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		default:
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		}
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

// errorMessage extracts a human-readable message from an error body,
// falling back to the raw text.
func errorMessage(body []byte) string {
	var parsed map[string]any
	if json.Unmarshal(body, &parsed) == nil {
		if msg, ok := parsed["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
		if msg, ok := parsed["error"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
