package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

// Decorator adds breakers and retries to apply and construct dispatches.
type Decorator struct {
	retry    *retrier
	breakers *breakers
	skip     func(path []string) bool
}

// Option configures a Decorator.
type Option func(*decoratorOptions)

type decoratorOptions struct {
	retry   *RetryConfig
	breaker *BreakerConfig
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	skip    func(path []string) bool
}

// WithRetry enables retries.
func WithRetry(cfg RetryConfig) Option {
	return func(o *decoratorOptions) {
		o.retry = &cfg
	}
}

// WithCircuitBreaker enables a breaker per callable path.
func WithCircuitBreaker(cfg BreakerConfig) Option {
	return func(o *decoratorOptions) {
		o.breaker = &cfg
	}
}

// WithClock replaces time.Now for breaker timing.
func WithClock(now func() time.Time) Option {
	return func(o *decoratorOptions) {
		o.now = now
	}
}

// WithSkip exempts callables for which skip returns true.
func WithSkip(skip func(path []string) bool) Option {
	return func(o *decoratorOptions) {
		o.skip = skip
	}
}

// withSleep replaces the delay between retries.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *decoratorOptions) {
		o.sleep = sleep
	}
}

// New creates a Decorator. Without WithRetry or WithCircuitBreaker the
// decorator passes calls through unchanged.
func New(opts ...Option) *Decorator {
	o := decoratorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Decorator{skip: o.skip}
	if o.retry != nil {
		d.retry = newRetrier(*o.retry)
		if o.sleep != nil {
			d.retry.sleep = o.sleep
		}
	}
	if o.breaker != nil {
		d.breakers = newBreakers(*o.breaker, o.now)
	}
	return d
}

// Wrap returns next with guarded apply and construct slots. Empty slots of
// next use the default behavior.
func (d *Decorator) Wrap(next shadow.TrapSet) shadow.TrapSet {
	c := shadow.Compose(next)
	out := next

	out.Apply = func(inv *shadow.Invocation, target object.Object, this any, args []any) (any, error) {
		return d.run(inv, func() (any, error) {
			return c.Apply(inv, target, this, args)
		})
	}
	out.Construct = func(inv *shadow.Invocation, target object.Object, args []any) (any, error) {
		return d.run(inv, func() (any, error) {
			return c.Construct(inv, target, args)
		})
	}
	return out
}

// Breaker returns the breaker for the callable at path, if one has been
// created by a call.
func (d *Decorator) Breaker(path ...string) (*Breaker, bool) {
	if d.breakers == nil {
		return nil, false
	}
	return d.breakers.lookup(path)
}

func (d *Decorator) run(inv *shadow.Invocation, call func() (any, error)) (any, error) {
	path := inv.Path()
	if d.skip != nil && d.skip(path) {
		return call()
	}

	attempt := call
	if d.retry != nil {
		ctx := inv.Context()
		attempt = func() (any, error) {
			return d.retry.do(ctx, path, call)
		}
	}
	if d.breakers == nil {
		return attempt()
	}

	b := d.breakers.get(path)
	if err := b.allow(); err != nil {
		return nil, err
	}
	v, err := attempt()
	b.record(err)
	return v, err
}
