// Package guard provides policy traps for shadow wrappers.
//
// A guard trap set evaluates Rules before every dispatched
// operation. The first rule that returns an error stops the dispatch and its
// error is returned to the caller; when every rule passes, the operation is
// applied to the target unchanged.
//
//	root := shadow.New(doc, guard.Traps(
//		guard.PrivatePrefix("_"),
//		guard.ReadOnly("meta.id"),
//	))
//
// Guard traps compose with other trap sets through Chain.
package guard
