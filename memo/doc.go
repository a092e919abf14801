// Package memo memoizes calls made through shadow wrappers.
//
// A Memoizer decorates a shadow.TrapSet so that apply dispatches on callables
// in the tree are answered from a Cache when the same callable (by path) was
// called with the same arguments before. Concurrent identical calls share a
// single execution. Writes, deletes and definitions at or above a callable's
// path invalidate its entries.
//
// Results are keyed on path and arguments only; the receiver is ignored, so
// only memoize callables whose result does not depend on it. Constructors are
// never memoized.
package memo
