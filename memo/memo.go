package memo

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

// Memoizer caches apply results for a shadow tree.
type Memoizer struct {
	cache  Cache
	keyer  Keyer
	policy Policy
	skip   SkipRule

	group singleflight.Group

	mu   sync.Mutex
	keys map[string]*tracked // shadow.PathKey -> entries
}

// Option configures a Memoizer.
type Option func(*Memoizer)

// WithKeyer replaces the DefaultKeyer.
func WithKeyer(k Keyer) Option {
	return func(m *Memoizer) {
		m.keyer = k
	}
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(m *Memoizer) {
		m.policy = p
	}
}

// WithSkipRule excludes callables from memoization.
func WithSkipRule(rule SkipRule) Option {
	return func(m *Memoizer) {
		m.skip = rule
	}
}

// New creates a Memoizer storing results in cache.
func New(cache Cache, opts ...Option) (*Memoizer, error) {
	if cache == nil {
		return nil, ErrNilCache
	}

	m := &Memoizer{
		cache:  cache,
		keyer:  NewDefaultKeyer(),
		policy: DefaultPolicy(),
		skip:   skipNothing,
		keys:   make(map[string]*tracked),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Wrap returns next with memoized apply and with invalidation after accepted
// set, deleteProperty and defineProperty dispatches. Empty slots of next use
// the default behavior.
func (m *Memoizer) Wrap(next shadow.TrapSet) shadow.TrapSet {
	c := shadow.Compose(next)
	out := next

	out.Apply = func(inv *shadow.Invocation, target object.Object, this any, args []any) (any, error) {
		return m.apply(inv, func() (any, error) {
			return c.Apply(inv, target, this, args)
		}, args)
	}
	out.Set = func(inv *shadow.Invocation, target object.Object, key string, value any) (bool, error) {
		ok, err := c.Set(inv, target, key, value)
		if ok {
			m.Invalidate(inv.Context(), inv.Path())
		}
		return ok, err
	}
	out.DeleteProperty = func(inv *shadow.Invocation, target object.Object, key string) (bool, error) {
		ok, err := c.DeleteProperty(inv, target, key)
		if ok {
			m.Invalidate(inv.Context(), inv.Path())
		}
		return ok, err
	}
	out.DefineProperty = func(inv *shadow.Invocation, target object.Object, key string, desc object.Descriptor) (bool, error) {
		ok, err := c.DefineProperty(inv, target, key, desc)
		if ok {
			m.Invalidate(inv.Context(), inv.Path())
		}
		return ok, err
	}
	return out
}

// Errors are never cached. A failing keyer or an invalid key bypasses the
// cache.
func (m *Memoizer) apply(inv *shadow.Invocation, call func() (any, error), args []any) (any, error) {
	path := inv.Path()
	if !m.policy.ShouldCache() || m.skip(path) {
		return call()
	}

	key, err := m.keyer.Key(path, args)
	if err != nil || ValidateKey(key) != nil {
		return call()
	}

	ctx := inv.Context()
	if v, ok := m.cache.Get(ctx, key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		v, err := call()
		if err != nil {
			return nil, err
		}
		if ttl := m.policy.EffectiveTTL(0); ttl > 0 {
			if err := m.cache.Set(ctx, key, v, ttl); err == nil {
				m.track(path, key)
			}
		}
		return v, nil
	})
	return v, err
}

// tracked lists the cache keys stored for one callable.
type tracked struct {
	path []string
	keys map[string]struct{}
}

func (m *Memoizer) track(path []string, key string) {
	p := shadow.PathKey(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.keys[p]
	if !ok {
		t = &tracked{path: path, keys: make(map[string]struct{})}
		m.keys[p] = t
	}
	t.keys[key] = struct{}{}
}

// Invalidate drops every entry for callables at or under path. An empty path
// drops everything.
func (m *Memoizer) Invalidate(ctx context.Context, path []string) {
	m.mu.Lock()
	var stale []string
	for p, t := range m.keys {
		if len(t.path) < len(path) || !slices.Equal(t.path[:len(path)], path) {
			continue
		}
		for k := range t.keys {
			stale = append(stale, k)
		}
		delete(m.keys, p)
	}
	m.mu.Unlock()

	for _, k := range stale {
		_ = m.cache.Delete(ctx, k)
	}
}
