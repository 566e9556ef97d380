// Package remote holds the JSON-over-HTTP transport shared by the
// classification and persistence clients.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taxonomy/application/ports"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Options configures a JSONClient
type Options struct {
	Service    string // label used in metrics and logs
	BaseURL    string
	HTTPClient *http.Client
	Breaker    BreakerConfig
	Metrics    ports.Metrics
	Logger     *zap.Logger
}

// JSONClient posts and fetches JSON documents through a circuit breaker.
// Transport errors and 5xx responses count against the breaker; 4xx
// responses do not.
type JSONClient struct {
	service string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewJSONClient creates a client rooted at opts.BaseURL
func NewJSONClient(opts Options) *JSONClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cfg := opts.Breaker
	if cfg == (BreakerConfig{}) {
		cfg = DefaultBreakerConfig()
	}
	logger := opts.Logger

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Service,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < 500
			}
			return err == nil
		},
	})

	return &JSONClient{
		service: opts.Service,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		breaker: breaker,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// Post sends body as JSON to path and decodes the response into out.
// out may be nil when the response body is not needed.
func (c *JSONClient) Post(ctx context.Context, operation, path string, body, out interface{}) error {
	return c.do(ctx, operation, http.MethodPost, path, body, out)
}

// Get fetches path and decodes the response into out
func (c *JSONClient) Get(ctx context.Context, operation, path string, out interface{}) error {
	return c.do(ctx, operation, http.MethodGet, path, nil, out)
}

func (c *JSONClient) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	if c.metrics != nil {
		c.metrics.RecordRemoteCall(c.service, operation, err, time.Since(start))
	}
	if err != nil {
		c.logger.Debug("Remote call failed",
			zap.String("service", c.service),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return err
}

func (c *JSONClient) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
