// Package client fetches dashboard aggregates from a running sales dashboard API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/aggregation"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"go.uber.org/zap"
)

const (
	// DashboardPath is the endpoint the dashboard frontend polls
	DashboardPath  = "/api/dashboard-data"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1024
)

// ErrUpstreamStatus is returned when the API answers with a non-2xx status
var ErrUpstreamStatus = errors.New("unexpected upstream status")

// StatusError carries the status and problem details of a failed response
type StatusError struct {
	StatusCode int
	Problem    *domain.APIError
	Body       string
}

func (e *StatusError) Error() string {
	if e.Problem != nil && e.Problem.Detail != "" {
		return fmt.Sprintf("%s: %d: %s", ErrUpstreamStatus, e.StatusCode, e.Problem.Detail)
	}
	return fmt.Sprintf("%s: %d", ErrUpstreamStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	httpClient HTTPDoer
	apiKey     string
	token      string
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a 30 second timeout
func WithHTTPClient(c HTTPDoer) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithAPIKey sends the key in the x-api-key header
func WithAPIKey(key string) Option {
	return func(cl *Client) { cl.apiKey = key }
}

// WithBearerToken sends a JWT in the Authorization header
func WithBearerToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchDashboard returns the aggregates as of the given date, or as of today when asOf is zero.
// A non-2xx answer yields a *StatusError wrapping ErrUpstreamStatus; transport
// failures are returned as they are.
func (c *Client) FetchDashboard(ctx context.Context, asOf time.Time) (*aggregation.Result, error) {
	target := c.baseURL + DashboardPath
	if !asOf.IsZero() {
		target += "?" + url.Values{"asOf": {asOf.Format("2006-01-02")}}.Encode()
	}

	var result aggregation.Result
	if err := c.getJSON(ctx, target, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, target string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("dashboard API request completed",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		var problem domain.APIError
		if json.Unmarshal(body, &problem) == nil && problem.Status != 0 {
			statusErr.Problem = &problem
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
