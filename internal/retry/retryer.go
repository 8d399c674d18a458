package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// Default policy values.
const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 200 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
)

// Policy bounds the number of attempts and the backoff between them.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the backoff ceiling before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the backoff ceiling.
	MaxDelay time.Duration
}

// DefaultPolicy returns 4 attempts, 200ms base and a 30s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Retryer implements aws.Retryer with full jitter: the delay before retry n
// is drawn uniformly from [0, min(MaxDelay, BaseDelay*2^(n-1))].
type Retryer struct {
	policy Policy
	rand   func(n int64) int64
}

var _ aws.Retryer = (*Retryer)(nil)

// New creates a Retryer. Zero or negative policy fields take their defaults.
func New(p Policy) *Retryer {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return &Retryer{policy: p, rand: rand.Int64N}
}

// Policy returns the effective policy.
func (r *Retryer) Policy() Policy {
	return r.policy
}

// MaxAttempts returns the total number of attempts allowed.
func (r *Retryer) MaxAttempts() int {
	return r.policy.MaxAttempts
}

// RetryDelay returns the backoff before retry number attempt (1-based).
func (r *Retryer) RetryDelay(attempt int, _ error) (time.Duration, error) {
	ceiling := Ceiling(r.policy, attempt)
	if ceiling <= 0 {
		return 0, nil
	}
	return time.Duration(r.rand(int64(ceiling) + 1)), nil
}

// IsErrorRetryable reports whether err is worth another attempt.
func (r *Retryer) IsErrorRetryable(err error) bool {
	return errors.IsRetryable(err)
}

// GetRetryToken always grants a retry; attempts are bounded by MaxAttempts.
func (r *Retryer) GetRetryToken(context.Context, error) (func(error) error, error) {
	return noopRelease, nil
}

// GetInitialToken returns a no-op release function.
func (r *Retryer) GetInitialToken() func(error) error {
	return noopRelease
}

func noopRelease(error) error { return nil }

// Ceiling returns min(MaxDelay, BaseDelay*2^(attempt-1)) without overflowing.
func Ceiling(p Policy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if d >= p.MaxDelay/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
