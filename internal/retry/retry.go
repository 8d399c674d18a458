package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// Op is one attempt of an idempotent operation. attempt starts at 1.
type Op[T any] func(ctx context.Context, attempt int) (T, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type doOptions struct {
	logger    *slog.Logger
	operation string
	sleep     SleepFunc
	now       func() time.Time
}

// Option configures a single Do call.
type Option func(*doOptions)

// WithLogger logs each retry at Warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *doOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOperation names the operation in log records.
func WithOperation(name string) Option {
	return func(o *doOptions) {
		o.operation = name
	}
}

// WithSleep replaces the backoff wait.
func WithSleep(sleep SleepFunc) Option {
	return func(o *doOptions) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// Do runs op until it succeeds or a terminal condition is reached.
//
// A non-retryable error is returned unchanged and without delay. When every
// attempt failed with a retryable error the result is a
// *errors.RetryExhaustedError wrapping the last one. Context cancellation
// during backoff returns the context error.
func Do[T any](ctx context.Context, r aws.Retryer, op Op[T], opts ...Option) (T, error) {
	o := &doOptions{
		logger: slog.New(slog.DiscardHandler),
		sleep:  Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	var zero T
	maxAttempts := r.MaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	start := o.now()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := op(ctx, attempt)
		if err == nil {
			return out, nil
		}
		if !r.IsErrorRetryable(err) {
			return zero, err
		}
		if attempt >= maxAttempts {
			return zero, &errors.RetryExhaustedError{
				Attempts: attempt,
				Elapsed:  o.now().Sub(start),
				Err:      err,
			}
		}

		delay, derr := r.RetryDelay(attempt, err)
		if derr != nil {
			return zero, err
		}
		o.logger.WarnContext(ctx, "retrying request",
			"operation", o.operation,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		if serr := o.sleep(ctx, delay); serr != nil {
			return zero, serr
		}
	}
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
