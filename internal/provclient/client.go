package provclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/version"
)

const (
	// DefaultAddress is the device address on its own access point
	DefaultAddress = "192.168.4.1"

	// DefaultPort is the portal HTTP port
	DefaultPort = 80

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// DefaultBodyLimit matches the portal's request body limit
	DefaultBodyLimit = 100
)

// Client submits credentials to a device's provisioning portal
type Client struct {
	// BaseURL is the portal base URL (e.g., "http://192.168.4.1:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	// BodyLimit is the largest form body the portal accepts
	BodyLimit int
}

// NewClient creates a client for the portal at ip:port
func NewClient(ip string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(ip, strconv.Itoa(port)))
}

// NewClientWithURL creates a new client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		BodyLimit:             DefaultBodyLimit,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the portal form is being served
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return NewNetworkError("failed to create ping request", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("device unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
	return nil
}

// EncodeForm builds the form body with the network name first
func EncodeForm(pair credstore.Pair) string {
	return "ssid=" + url.QueryEscape(pair.NetworkName) + "&password=" + url.QueryEscape(pair.Secret)
}

// Validate checks that the portal will store pair unchanged
func (c *Client) Validate(pair credstore.Pair) error {
	if pair.NetworkName == "" {
		return NewValidationError("network name is required")
	}
	if len(pair.NetworkName) > credstore.MaxNetworkNameLen {
		return NewValidationError(fmt.Sprintf("network name is %d bytes, maximum is %d", len(pair.NetworkName), credstore.MaxNetworkNameLen))
	}
	if len(pair.Secret) > credstore.MaxSecretLen {
		return NewValidationError(fmt.Sprintf("password is %d bytes, maximum is %d", len(pair.Secret), credstore.MaxSecretLen))
	}
	if n := len(EncodeForm(pair)); c.BodyLimit > 0 && n > c.BodyLimit {
		return NewValidationError(fmt.Sprintf("encoded form is %d bytes, device accepts at most %d", n, c.BodyLimit))
	}
	return nil
}

// Submit posts the credentials and returns the device's acknowledgment
func (c *Client) Submit(ctx context.Context, pair credstore.Pair) (string, error) {
	if err := c.Validate(pair); err != nil {
		return "", err
	}

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying credential submission",
				zap.Int("attempt", attempt),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", NewNetworkError("submission cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		ack, err := c.submitAttempt(ctx, pair)
		if err == nil {
			return ack, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
	}

	return "", lastErr
}

func (c *Client) submitAttempt(ctx context.Context, pair credstore.Pair) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/connect", strings.NewReader(EncodeForm(pair)))
	if err != nil {
		return "", NewNetworkError("failed to create POST request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", NewNetworkError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", NewHTTPError(resp.StatusCode, fmt.Sprintf("submission failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return string(body), nil
}
