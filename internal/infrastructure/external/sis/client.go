// Package sis implements the Student Information System API client.
// This is the network counterpart of the CSV source: districts that expose
// their SIS over HTTP point the engine here instead of at a file export.
package sis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
	"github.com/aura-hub/intervention-hub/pkg/circuitbreaker"
	"github.com/aura-hub/intervention-hub/pkg/retry"
)

// ErrRateLimitExceeded is returned when the local rate limiter gives up
// waiting for a token.
var ErrRateLimitExceeded = errors.New("sis: rate limit exceeded")

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the SIS API client.
type ClientConfig struct {
	// BaseURL is the SIS API base URL.
	BaseURL string

	// APIKey is the bearer token for authentication.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting.
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables request-level debug logging.
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the SIS API client. It implements student.Source with rate
// limiting, retries, and a circuit breaker in front of the district API.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	retrier        *retry.Retrier
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClient creates a new SIS API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	logger := config.Logger

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		retrier:     retry.SISRetrier(),
		circuitBreaker: circuitbreaker.SISBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SOURCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetProfile fetches a single student profile by ID.
func (c *Client) GetProfile(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	path := fmt.Sprintf("/api/v1/students/%s", url.PathEscape(id.String()))

	var dto StudentDTO
	if err := c.doRequest(ctx, path, &dto); err != nil {
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}

	return dto.toProfile()
}

// ListProfiles fetches the full roster.
func (c *Client) ListProfiles(ctx context.Context) ([]*student.Profile, error) {
	var response StudentsResponseDTO
	if err := c.doRequest(ctx, "/api/v1/students", &response); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	profiles := make([]*student.Profile, 0, len(response.Students))
	for _, dto := range response.Students {
		profile, err := dto.toProfile()
		if err != nil {
			c.logger.Warn("skipping invalid student record",
				"student_id", dto.StudentID, "error", err)
			continue
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a GET with rate limiting, retries, and circuit breaking.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				return retry.Permanent(err)
			}
			return c.doSingleRequest(ctx, path, result)
		})
	})
}

// doSingleRequest performs one HTTP request and classifies failures for
// the retry layer.
func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if c.config.Debug {
		c.logger.Debug("sis api request", "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return retry.Retryable(shared.ErrSISTimeout)
		}
		return retry.Retryable(fmt.Errorf("%w: %v", shared.ErrSISUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(shared.ErrStudentNotFound)

	case resp.StatusCode == http.StatusTooManyRequests:
		c.rateLimiter.RecordThrottle()
		return retry.Retryable(shared.ErrSISRateLimited)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.Permanent(fmt.Errorf("sis auth failed: status %d", resp.StatusCode))

	case resp.StatusCode >= 500:
		return retry.Retryable(fmt.Errorf("%w: status %d", shared.ErrSISUnavailable, resp.StatusCode))

	case resp.StatusCode >= 400:
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return retry.Permanent(&apiErr)
		}
		return retry.Permanent(fmt.Errorf("sis api error: status %d", resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return retry.Permanent(fmt.Errorf("%w: %v", shared.ErrSISInvalidResponse, err))
		}
	}

	return nil
}

// Healthy reports whether the circuit breaker currently admits requests.
func (c *Client) Healthy() bool {
	return !c.circuitBreaker.IsOpen()
}
