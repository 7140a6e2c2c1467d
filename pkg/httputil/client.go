package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/wonny/yieldmap/pkg/logger"
)

// Client is an HTTP client wrapper with retry logic and logging
// ⭐ SSOT: 외부 파일 다운로드는 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// StatusError is a non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// New creates a client with a 5 minute timeout; workbooks are tens of MB
func New(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(log *logger.Logger, timeout time.Duration) *Client {
	client := New(log)
	client.httpClient.Timeout = timeout
	return client
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// Download GETs url and copies the body to w. A retried attempt only
// starts after the previous response was rejected, so w never receives a
// partial body followed by a second one.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	start := time.Now()
	log := c.logger.WithField("url", url)
	log.Debug("HTTP download started")

	resp, err := c.get(ctx, url)
	if err != nil {
		log.WithField("duration", time.Since(start)).WithError(err).Error("HTTP download failed")
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read body %s: %w", url, err)
	}

	log.WithFields(map[string]interface{}{
		"bytes":    n,
		"duration": time.Since(start),
	}).Info("HTTP download completed")
	return n, nil
}

// get returns a 2xx response; the caller closes the body
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	op := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create GET request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if !IsRetryableError(resp.StatusCode) {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	if !c.retryConfig.Enabled {
		resp, err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return resp, err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryConfig.InitialDelay
	eb.MaxInterval = c.retryConfig.MaxDelay

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.retryConfig.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.WithFields(map[string]interface{}{
				"url":   url,
				"delay": next,
				"error": err.Error(),
			}).Warn("Retrying HTTP request")
		}),
	)
}

// IsRetryableError checks if a status should be retried
func IsRetryableError(statusCode int) bool {
	// 5xx 서버 오류와 429 Too Many Requests
	return statusCode >= 500 || statusCode == 429
}
