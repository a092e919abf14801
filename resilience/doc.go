// Package resilience guards calls made through shadow wrappers.
//
// A Decorator wraps the apply and construct traps of a shadow.TrapSet with a
// per-callable circuit breaker and a retry loop. Breakers are keyed by the
// dotted path of the callable within the tree, so a failing function at
// "api.fetch" does not trip calls to "api.list".
//
//	d := resilience.New(
//	    resilience.WithCircuitBreaker(resilience.BreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: time.Minute,
//	    }),
//	    resilience.WithRetry(resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 50 * time.Millisecond,
//	    }),
//	)
//	root := shadow.New(target, d.Wrap(shadow.TrapSet{}))
//
// The breaker sits outside the retry loop: one exhausted sequence of
// attempts counts as a single failure. Property traps pass through untouched.
package resilience
