package resilience

import (
	"sync"
	"time"

	"github.com/jonwraymond/shadowcopy/shadow"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls pass through.
	StateClosed State = iota
	// StateOpen means calls are refused.
	StateOpen
	// StateHalfOpen means a limited number of trial calls are let through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the breaker kept for each callable path.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening.
	// Default: 5
	MaxFailures int `mapstructure:"max_failures"`

	// ResetTimeout is how long an open breaker waits before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// HalfOpenMaxRequests is the number of trial calls allowed while half-open.
	// Default: 1
	HalfOpenMaxRequests int `mapstructure:"half_open_max_requests"`

	// OnStateChange is called with the breaker lock held; it must not call
	// back into the breaker.
	OnStateChange func(path []string, from, to State) `mapstructure:"-"`

	// IsFailure reports whether err counts against the breaker.
	// Default: every non-nil error except a refusal by another breaker.
	IsFailure func(err error) bool `mapstructure:"-"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = isFailure
	}
	return c
}

// Breaker is the circuit breaker for one callable.
type Breaker struct {
	path   []string
	config BreakerConfig
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	halfOpenCount int
}

// State returns the current state, moving an expired open breaker to
// half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked()
}

// Reset closes the breaker and forgets its failures.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state
	b.state = StateClosed
	b.failures = 0
	b.halfOpenCount = 0
	b.notify(old)
}

// Stats returns a snapshot of the breaker.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		State:       b.currentLocked(),
		Failures:    b.failures,
		LastFailure: b.lastFailure,
	}
}

// BreakerStats is a snapshot of a Breaker.
type BreakerStats struct {
	State       State
	Failures    int
	LastFailure time.Time
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked() {
	case StateOpen:
		return &CircuitOpenError{Path: b.path}
	case StateHalfOpen:
		if b.halfOpenCount >= b.config.HalfOpenMaxRequests {
			return &CircuitOpenError{Path: b.path}
		}
		b.halfOpenCount++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := b.config.IsFailure(err)
	old := b.state

	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			break
		}
		b.failures++
		b.lastFailure = b.now()
		if b.failures >= b.config.MaxFailures {
			b.state = StateOpen
		}
	case StateHalfOpen:
		if failed {
			b.lastFailure = b.now()
			b.state = StateOpen
		} else {
			b.state = StateClosed
			b.failures = 0
		}
	}
	b.notify(old)
}

func (b *Breaker) currentLocked() State {
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.config.ResetTimeout {
		b.state = StateHalfOpen
		b.halfOpenCount = 0
		b.notify(StateOpen)
	}
	return b.state
}

func (b *Breaker) notify(old State) {
	if old != b.state && b.config.OnStateChange != nil {
		b.config.OnStateChange(b.path, old, b.state)
	}
}

// breakers holds one Breaker per callable path.
type breakers struct {
	config BreakerConfig
	now    func() time.Time

	mu     sync.Mutex
	byPath map[string]*Breaker
}

func newBreakers(config BreakerConfig, now func() time.Time) *breakers {
	return &breakers{
		config: config.withDefaults(),
		now:    now,
		byPath: make(map[string]*Breaker),
	}
}

func (bs *breakers) get(path []string) *Breaker {
	key := shadow.PathKey(path)

	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.byPath[key]
	if !ok {
		b = &Breaker{
			path:   append([]string(nil), path...),
			config: bs.config,
			now:    bs.now,
		}
		bs.byPath[key] = b
	}
	return b
}

// lookup returns the breaker for path without creating one.
func (bs *breakers) lookup(path []string) (*Breaker, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.byPath[shadow.PathKey(path)]
	return b, ok
}
