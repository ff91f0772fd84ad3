// Package transport performs the HTTP exchange with LLM providers,
// classifying failures and retrying the transient ones.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/logger"
	"github.com/lorehaven/recap/internal/telemetry"
)

const (
	// DefaultTimeout is the per-attempt timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAttempts is the total number of attempts per request.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the base delay between attempts; the actual
	// delay grows linearly with the attempt number.
	DefaultRetryDelay = 2 * time.Second
)

// Errors
var (
	ErrAttemptsExhausted = errors.New("all attempts exhausted")
)

// Client sends provider requests with bounded retries.
type Client struct {
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
	metrics     *telemetry.MetricsCollector
	log         *logger.Logger
}

// Config holds configuration for the transport client.
type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	Metrics     *telemetry.MetricsCollector
	Logger      *logger.Logger
}

// New creates a transport client with the given configuration.
func New(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.Metrics == nil {
		config.Metrics = telemetry.NewMetricsCollector()
	}
	if config.Logger == nil {
		config.Logger = logger.GetLogger("transport")
	}

	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout},
		maxAttempts: config.MaxAttempts,
		retryDelay:  config.RetryDelay,
		metrics:     config.Metrics,
		log:         config.Logger,
	}
}

// Send POSTs the body to the URL with up to maxAttempts attempts.
// Authentication failures (401/403) are fatal and returned immediately.
// Everything else is treated as transient and retried with a linearly
// increasing delay until attempts run out.
func (c *Client) Send(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.IncrementCounter(telemetry.MetricRetryAttempts, 1)

			delay := c.retryDelay * time.Duration(attempt-1)
			select {
			case <-ctx.Done():
				return "", errortypes.TransientError(ctx.Err(), "request canceled while waiting to retry")
			case <-time.After(delay):
			}
		}

		respBody, err := c.sendOnce(ctx, url, headers, body)
		if err == nil {
			if attempt > 1 {
				c.metrics.IncrementCounter(telemetry.MetricRetrySuccess, 1)
			}
			return respBody, nil
		}

		lastErr = err

		if errortypes.IsAuthentication(err) {
			// Fatal: retrying an auth failure cannot succeed.
			return "", err
		}

		c.log.Warn("Attempt %d/%d failed: %v", attempt, c.maxAttempts, err)
	}

	return "", errortypes.TransientError(lastErr, ErrAttemptsExhausted.Error())
}

// sendOnce performs a single HTTP exchange and classifies its outcome.
func (c *Client) sendOnce(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return "", errortypes.InternalError(err, "error creating request")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errortypes.TransientError(err, "connection failure")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errortypes.TransientError(err, "error reading response body")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return string(respBody), nil
	}

	return "", classifyHTTPError(resp.StatusCode, string(respBody))
}

// classifyHTTPError maps a failed HTTP exchange onto the error taxonomy.
func classifyHTTPError(status int, body string) error {
	err := fmt.Errorf("HTTP %d", status)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errortypes.AuthenticationError(err, "provider rejected credentials").
			WithField("status", status)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusGatewayTimeout:
		return errortypes.TransientError(err, "provider overloaded").
			WithField("status", status)
	}

	if strings.Contains(body, "overloaded") || strings.Contains(body, "UNAVAILABLE") {
		return errortypes.TransientError(err, "provider reported overload").
			WithField("status", status)
	}

	return errortypes.TransientError(err, "unexpected HTTP error").
		WithField("status", status)
}

// SanitizeKey renders an API key safe for logging: first 7 and last 4
// characters with the length, or a fully masked form for short keys.
func SanitizeKey(key string) string {
	if len(key) <= 11 {
		return fmt.Sprintf("***(len %d)", len(key))
	}
	return fmt.Sprintf("%s...%s (len %d)", key[:7], key[len(key)-4:], len(key))
}
