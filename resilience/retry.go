package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/shadowcopy/object"
)

// Backoff selects how the delay grows between attempts.
type Backoff int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential Backoff = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// RetryConfig configures the retry loop around each call.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first included.
	// Default: 3
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// MaxDelay caps the delay between attempts.
	// Default: 30s
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// Multiplier is the exponential growth factor.
	// Default: 2.0
	Multiplier float64 `mapstructure:"multiplier"`

	Backoff Backoff `mapstructure:"backoff"`

	// Jitter adds up to 25% to each delay.
	Jitter bool `mapstructure:"jitter"`

	// RetryIf reports whether err is worth another attempt.
	// Default: every error except ones raised by the object model for a
	// non-callable target, an open breaker and context cancellation.
	RetryIf func(err error) bool `mapstructure:"-"`

	// OnRetry is called before each retry.
	OnRetry func(path []string, attempt int, err error, delay time.Duration) `mapstructure:"-"`
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = retryable
	}
	return c
}

type retrier struct {
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

func newRetrier(config RetryConfig) *retrier {
	return &retrier{config: config.withDefaults(), sleep: sleepCtx}
}

// do runs call until it succeeds, RetryIf declines, attempts run out or ctx
// is done. The last error is returned as is.
func (r *retrier) do(ctx context.Context, path []string, call func() (any, error)) (any, error) {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		v, err := call()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !r.config.RetryIf(err) || attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(path, attempt, err, delay)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (r *retrier) delay(attempt int) time.Duration {
	var d time.Duration
	switch r.config.Backoff {
	case BackoffConstant:
		d = r.config.InitialDelay
	case BackoffLinear:
		d = r.config.InitialDelay * time.Duration(attempt)
	default:
		d = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	if d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	if r.config.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, object.ErrNotCallable),
		errors.Is(err, object.ErrNotConstructor),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func isFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrCircuitOpen)
}
