// Package resilience provides retry and circuit-breaking for network
// calls. Both are policies applied around the API client; the duplex
// channel deliberately has no retry at this layer (reconnection is
// credential-driven).
package resilience

import (
	"context"
	"time"
)

// RetryOptions configures Retry.
type RetryOptions struct {
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Exponential doubles the delay on each subsequent retry.
	Exponential bool
	// RetryIf decides whether an error is worth retrying. nil retries
	// every error.
	RetryIf func(error) bool
}

// DefaultRetryOptions mirrors the client's standard network policy.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:  3,
		Delay:       time.Second,
		Exponential: true,
	}
}

// Retry runs fn until it succeeds, the retry budget is exhausted, the
// error is not retryable, or ctx is done. Returns the last error.
func Retry(ctx context.Context, opts RetryOptions, fn func() error) error {
	delay := opts.Delay
	var err error

	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= opts.MaxRetries {
			return err
		}
		if opts.RetryIf != nil && !opts.RetryIf(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if opts.Exponential {
			delay *= 2
		}
	}
}
