package memo

import (
	"slices"
	"strings"
	"time"
)

// Policy configures memoization.
type Policy struct {
	// DefaultTTL is how long results are kept. Zero disables memoization.
	DefaultTTL time.Duration

	// MaxTTL clamps DefaultTTL when set.
	MaxTTL time.Duration
}

// DefaultPolicy keeps results for 5 minutes, at most 1 hour.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     time.Hour,
	}
}

// NoCachePolicy disables memoization.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether memoization is enabled.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns override, or DefaultTTL when override is not positive,
// clamped to MaxTTL.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// SkipRule reports whether calls to the callable at path bypass the cache.
type SkipRule func(path []string) bool

// SkipPaths returns a SkipRule matching the given dotted paths and everything
// under them. A dotted path cannot name a key that contains "."; write a
// SkipRule over the path segments for those.
func SkipPaths(paths ...string) SkipRule {
	prefixes := make([][]string, 0, len(paths))
	for _, p := range paths {
		prefixes = append(prefixes, strings.Split(p, "."))
	}
	return func(path []string) bool {
		for _, prefix := range prefixes {
			if len(path) >= len(prefix) && slices.Equal(path[:len(prefix)], prefix) {
				return true
			}
		}
		return false
	}
}

func skipNothing([]string) bool { return false }
