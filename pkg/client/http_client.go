package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fairgo/ai-ivr/pkg/circuitbreaker"
	"github.com/fairgo/ai-ivr/pkg/metrics"
	"github.com/fairgo/ai-ivr/pkg/retry"
)

// maxResponseBytes bounds how much of an upstream body is buffered.
const maxResponseBytes = 32 << 20

// ErrResponseTooLarge is returned when an upstream body exceeds the buffer
// limit. The body is discarded rather than truncated.
var ErrResponseTooLarge = errors.New("upstream response too large")

// Response is a fully-read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// HTTPClient wraps http.Client with retry and circuit breaker
type HTTPClient struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	serviceName    string
	maxBodyBytes   int64
}

// NewHTTPClient creates a new HTTP client with retry and circuit breaker
func NewHTTPClient(serviceName string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		retryConfig:    retry.DefaultConfig(),
		serviceName:    serviceName,
		maxBodyBytes:   maxResponseBytes,
	}
}

// WithRetry overrides the retry policy.
func (c *HTTPClient) WithRetry(cfg retry.Config) *HTTPClient {
	c.retryConfig = cfg
	return c
}

// WithCircuitBreaker overrides the breaker configuration.
func (c *HTTPClient) WithCircuitBreaker(cfg circuitbreaker.Config) *HTTPClient {
	c.circuitBreaker = circuitbreaker.New(cfg)
	return c
}

// ServiceName returns the name used for metrics.
func (c *HTTPClient) ServiceName() string {
	return c.serviceName
}

// PostJSON performs a POST with a JSON body. 5xx responses and transport
// errors are retried and count against the circuit breaker; 4xx responses
// are returned immediately as *StatusError.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}) (*Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	var resp *Response
	var clientErr error

	err = c.circuitBreaker.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
			if reqErr != nil {
				return retry.Permanent(reqErr)
			}
			req.Header.Set("Content-Type", "application/json")
			for k, v := range headers {
				req.Header.Set(k, v)
			}

			r, doErr := c.client.Do(req)
			if doErr != nil {
				return doErr
			}
			defer r.Body.Close()

			data, readErr := io.ReadAll(io.LimitReader(r.Body, c.maxBodyBytes+1))
			if readErr != nil {
				return fmt.Errorf("failed to read response: %w", readErr)
			}
			if int64(len(data)) > c.maxBodyBytes {
				return retry.Permanent(fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBodyBytes))
			}

			if r.StatusCode >= 500 {
				return &StatusError{StatusCode: r.StatusCode, Body: truncate(data)}
			}
			if r.StatusCode >= 400 {
				// Caller error: not retried, and not the upstream's fault.
				clientErr = &StatusError{StatusCode: r.StatusCode, Body: truncate(data)}
				return nil
			}

			resp = &Response{StatusCode: r.StatusCode, Header: r.Header, Body: data}
			return nil
		})
	})
	if err == nil && clientErr != nil {
		err = clientErr
	}

	metrics.RecordServiceCall(c.serviceName, err == nil, time.Since(start))
	stats := c.circuitBreaker.GetStats()
	failures := int64(0)
	if f, ok := stats["failures"].(int); ok {
		failures = int64(f)
	}
	metrics.UpdateCircuitBreaker(c.serviceName, c.circuitBreaker.GetState().String(), failures)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON performs a GET and decodes a JSON response into out.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	start := time.Now()
	err := c.circuitBreaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		r, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
			return &StatusError{StatusCode: r.StatusCode, Body: truncate(data)}
		}
		return json.NewDecoder(r.Body).Decode(out)
	})
	metrics.RecordServiceCall(c.serviceName, err == nil, time.Since(start))
	return err
}

func truncate(b []byte) string {
	if len(b) > 512 {
		return string(b[:512])
	}
	return string(b)
}
