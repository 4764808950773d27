// Package api is the request/response collaborator: chat identities, auth
// and profile endpoints over plain HTTP. Calls are atomic; idempotency on
// retry is not guaranteed by the backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/akvekariya/aichatbot-reactnative/internal/config"
	"github.com/akvekariya/aichatbot-reactnative/internal/logging"
	"github.com/akvekariya/aichatbot-reactnative/internal/monitoring"
	"github.com/akvekariya/aichatbot-reactnative/internal/resilience"
	"github.com/akvekariya/aichatbot-reactnative/internal/types"
)

// TokenSource owns the bearer credential the client attaches to every
// request. *auth.Credentials implements it.
type TokenSource interface {
	Token() string
	Set(token string)
	Clear()
}

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// IsAPIError reports whether err is a backend response error, as opposed
// to a network failure. Retry policies only retry the latter.
func IsAPIError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

// Client wraps resty with a retrying transport, rate limiting, a circuit
// breaker against a flapping backend, bearer auth, and a single
// refresh-driven retry on 401.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	tokens  TokenSource
	log     *logging.Logger
	metrics *monitoring.Metrics

	limiterMu sync.RWMutex
	limiter   *rate.Limiter

	// Serializes concurrent refresh attempts so one 401 storm produces
	// one refresh call.
	refreshMu sync.Mutex
}

// NewClient creates a production-ready API client.
func NewClient(cfg config.APIConfig, tokens TokenSource, log *logging.Logger, metrics *monitoring.Metrics) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(retryClient.RetryMax).
		SetRetryWaitTime(retryClient.RetryWaitMin).
		SetRetryMaxWaitTime(retryClient.RetryWaitMax).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "aichatbot-client/1.0")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	apiLog := log.Named("api")
	return &Client{
		resty: restyClient,
		breaker: resilience.NewBreaker(resilience.BreakerSettings{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			OnStateChange: func(from, to resilience.BreakerState) {
				apiLog.Warn("circuit breaker state change",
					zap.Stringer("from", from), zap.Stringer("to", to))
			},
		}),
		limiter: rate.NewLimiter(rate.Inf, 0),
		tokens:  tokens,
		log:     apiLog,
		metrics: metrics,
	}
}

// SetRateLimit caps outgoing requests per second. 0 means unlimited.
// Safe to call while requests are in flight.
func (c *Client) SetRateLimit(rps float64) {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
	c.limiterMu.Lock()
	c.limiter = limiter
	c.limiterMu.Unlock()
}

func (c *Client) currentLimiter() *rate.Limiter {
	c.limiterMu.RLock()
	defer c.limiterMu.RUnlock()
	return c.limiter
}

// call performs one request against the backend. result must be a pointer
// to the endpoint's response envelope. A 401 on an authenticated request
// triggers at most one token refresh and retry. Network failures feed the
// circuit breaker; while it is open every call fails fast with
// resilience.ErrCircuitOpen. Backend responses, error status or not, count as the
// backend being reachable and do not trip it.
func (c *Client) call(ctx context.Context, method, path, endpoint string, body, result interface{}, query map[string]string) error {
	if err := c.currentLimiter().Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var callErr error
	err := c.breaker.Execute(func() error {
		callErr = c.roundTrip(ctx, method, path, endpoint, body, result, query)
		if callErr != nil && !IsAPIError(callErr) {
			return callErr
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.count(endpoint, "circuit_open")
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return callErr
}

func (c *Client) roundTrip(ctx context.Context, method, path, endpoint string, body, result interface{}, query map[string]string) error {
	resp, err := c.execute(ctx, method, path, body, result, query)
	if err != nil {
		c.count(endpoint, "network_error")
		return fmt.Errorf("%s: %w", endpoint, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized && c.tokens.Token() != "" {
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			c.count(endpoint, "auth_error")
			return fmt.Errorf("%s: %w", endpoint, refreshErr)
		}
		resp, err = c.execute(ctx, method, path, body, result, query)
		if err != nil {
			c.count(endpoint, "network_error")
			return fmt.Errorf("%s: %w", endpoint, err)
		}
	}

	if resp.IsError() {
		c.count(endpoint, "error")
		return fmt.Errorf("%s: %w", endpoint, &Error{
			Status:  resp.StatusCode(),
			Message: errorMessage(resp),
		})
	}

	c.count(endpoint, "ok")
	return nil
}

func (c *Client) execute(ctx context.Context, method, path string, body, result interface{}, query map[string]string) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetError(&types.APIStatus{})
	if token := c.tokens.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	for k, v := range query {
		req.SetQueryParam(k, v)
	}
	return req.Execute(method, path)
}

// refresh exchanges the current token for a fresh one. On failure the
// credential is cleared, which sends the application back to login.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var out types.AuthResponse
	resp, err := c.execute(ctx, http.MethodPost, "/api/auth/refresh", nil, &out, nil)
	if err == nil && resp.IsSuccess() && out.Data.Token != "" {
		c.tokens.Set(out.Data.Token)
		c.log.Info("token refreshed")
		return nil
	}

	c.tokens.Clear()
	if err != nil {
		c.log.Warn("token refresh failed", zap.Error(err))
		return fmt.Errorf("token refresh: %w", err)
	}
	c.log.Warn("token refresh rejected", zap.Int("status", resp.StatusCode()))
	return fmt.Errorf("token refresh: %w", &Error{Status: resp.StatusCode(), Message: errorMessage(resp)})
}

func (c *Client) count(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.APICalls.WithLabelValues(endpoint, outcome).Inc()
	}
}

func errorMessage(resp *resty.Response) string {
	if status, ok := resp.Error().(*types.APIStatus); ok && status != nil {
		if status.Message != "" {
			return status.Message
		}
		return status.Error
	}
	return ""
}
