// Package shadow provides transparent, transitive interception over object graphs.
//
// New wraps a root object.Object with a TrapSet. Every operation on the
// returned Wrapper is dispatched to the matching trap, or to the default
// behavior when the trap slot is empty. Object-valued results of the default
// get are themselves wrapped with the same TrapSet, lazily and recursively, so
// interception follows the caller through the whole reachable graph.
//
// # Paths
//
// Each wrapper knows its position relative to the root as a path of property
// keys. Every trap receives an *Invocation whose Path is the wrapper's path
// plus the key being operated on (key-bearing operations) or the wrapper's path
// unchanged (ownKeys, apply, construct):
//
//	root := shadow.New(doc, shadow.TrapSet{
//	    Set: func(inv *shadow.Invocation, target object.Object, key string, v any) (bool, error) {
//	        log.Printf("write %v", inv.Path())
//	        return target.Set(key, v)
//	    },
//	})
//
// The tree's Tracker additionally exposes the path of the innermost dispatch in
// progress, and of the most recent one once it has returned.
//
// # Identity
//
// Each wrapper caches the wrappers it creates for nested values, keyed by the
// identity of the raw value, so reading the same property twice returns the
// same *Wrapper. A set, deleteProperty or defineProperty through the wrapper
// evicts the entry of the value being replaced before the trap runs. The cache
// holds strong references: a nested raw value stays reachable for as long as
// the wrapper that cached it, or until it is replaced through that wrapper.
//
// # Concurrency
//
// Dispatch is synchronous and re-entrant. A tree is meant to be driven from
// one goroutine at a time; the cache and tracker are internally locked so
// misuse does not corrupt memory, but Tracker.Current is only meaningful under
// that discipline. Invocation.Path is always exact.
package shadow
