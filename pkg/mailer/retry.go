package mailer

import (
	"context"
	"time"

	"github.com/proofr/notifier/pkg/backoff"
)

// RetryOption configures SendWithRetry.
type RetryOption func(*retryOptions)

type retryOptions struct {
	maxRetries int
	strategy   backoff.Strategy
}

// WithMaxRetries sets the total number of delivery attempts.
func WithMaxRetries(n int) RetryOption {
	return func(o *retryOptions) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithBaseDelay sets the base delay for the exponential in-process backoff.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(o *retryOptions) {
		if d > 0 {
			o.strategy = backoff.Exponential{
				InitialInterval: d,
				MaxInterval:     time.Hour,
				Multiplier:      2,
			}
		}
	}
}

// WithBackoff replaces the backoff strategy entirely.
func WithBackoff(s backoff.Strategy) RetryOption {
	return func(o *retryOptions) {
		if s != nil {
			o.strategy = s
		}
	}
}

// SendWithRetry calls Send up to maxRetries times (default 3), sleeping
// base*2^(attempt-1) before each attempt after the first (default base 1s).
// It returns the first successful result; when every attempt fails it
// returns the last failure. Context cancellation during a backoff sleep
// stops retrying and reports the context error.
//
// This in-process retry is nested inside the processor's own persisted
// retry schedule, so one claimed notification may issue several provider
// calls before the processor records a single attempt's outcome.
func SendWithRetry(ctx context.Context, sender Sender, msg Message, opts ...RetryOption) Result {
	options := &retryOptions{
		maxRetries: 3,
		strategy: backoff.Exponential{
			InitialInterval: time.Second,
			MaxInterval:     time.Hour,
			Multiplier:      2,
		},
	}
	for _, opt := range opts {
		opt(options)
	}

	var last Result
	for attempt := 1; attempt <= options.maxRetries; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(options.strategy.NextInterval(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return failure(ctx.Err())
			case <-timer.C:
			}
		}

		last = sender.Send(ctx, msg)
		if last.Success {
			return last
		}
	}

	if last.Error == "" {
		last.Error = "max retries exceeded"
	}
	return last
}
